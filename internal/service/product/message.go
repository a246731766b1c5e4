package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Additional-Code/mercury/internal/entity"
	repo "github.com/Additional-Code/mercury/internal/repository/product"
	"github.com/Additional-Code/mercury/pkg/errorbank"
)

// Product message actions accepted from the queue.
const (
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionMarkOutOfStock = "mark_out_of_stock"
)

// Message is the payload consumed from the product topic. Action selects the
// operation; the remaining fields mirror the HTTP create/update shape.
type Message struct {
	Action        string   `json:"action"`
	ProductID     int64    `json:"product_id"`
	Name          string   `json:"name"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	StockQuantity *int64   `json:"stock_quantity"`
}

// ApplyMessage dispatches a queue message to the matching product operation.
// It shares the exact create/update logic with the HTTP path so the two
// transports cannot drift apart.
func (s *Service) ApplyMessage(ctx context.Context, msg Message) (*entity.Product, error) {
	switch msg.Action {
	case ActionCreate:
		return s.applyCreate(ctx, msg)
	case ActionUpdate:
		existing, err := s.locate(ctx, msg.ProductID, msg.Name)
		if err != nil {
			return nil, err
		}
		return s.Update(ctx, existing.ID, updateFromMessage(msg))
	case ActionMarkOutOfStock:
		existing, err := s.locate(ctx, msg.ProductID, msg.Name)
		if err != nil {
			return nil, err
		}
		return s.MarkOutOfStock(ctx, existing.ID)
	default:
		return nil, errorbank.BadRequest(fmt.Sprintf("unsupported product action: %s", msg.Action))
	}
}

// applyCreate upserts by product name: an existing product with the same
// name is updated instead of duplicated.
func (s *Service) applyCreate(ctx context.Context, msg Message) (*entity.Product, error) {
	if strings.TrimSpace(msg.Name) == "" || msg.Price == nil {
		return nil, errorbank.BadRequest("name and price are required to create a product")
	}

	existing, err := s.repo.GetByName(ctx, msg.Name)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.Internal("failed to look up product by name", errorbank.WithCause(err))
	}
	if existing != nil {
		return s.Update(ctx, existing.ID, updateFromMessage(msg))
	}

	input := CreateInput{
		Name:  msg.Name,
		Price: *msg.Price,
	}
	if msg.Description != nil {
		input.Description = *msg.Description
	}
	if msg.StockQuantity != nil {
		input.StockQuantity = *msg.StockQuantity
	}
	return s.Create(ctx, input)
}

// locate resolves a product by id first, then by name.
func (s *Service) locate(ctx context.Context, id int64, name string) (*entity.Product, error) {
	if id != 0 {
		product, err := s.repo.GetByID(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
		}
	}
	if name != "" {
		product, err := s.repo.GetByName(ctx, name)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
		}
	}
	return nil, errorbank.NotFound("product not found for update")
}

func updateFromMessage(msg Message) UpdateInput {
	upd := UpdateInput{
		Description:   msg.Description,
		Price:         msg.Price,
		StockQuantity: msg.StockQuantity,
	}
	if msg.Name != "" {
		name := msg.Name
		upd.Name = &name
	}
	return upd
}
