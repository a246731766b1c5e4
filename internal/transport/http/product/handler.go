package product

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/mercury/internal/dto"
	"github.com/Additional-Code/mercury/internal/entity"
	"github.com/Additional-Code/mercury/internal/presentation/http/response"
	repo "github.com/Additional-Code/mercury/internal/repository/product"
	service "github.com/Additional-Code/mercury/internal/service/product"
	"github.com/Additional-Code/mercury/internal/transport/http/params"
	"github.com/Additional-Code/mercury/pkg/errorbank"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/mercury/transport/http/product")

// Handler exposes product endpoints over HTTP. The catalog is read-only
// here; mutations arrive through the product topic.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a product Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/products")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	count, page := params.Pagination(c)
	filter := repo.Filter{
		Name: c.QueryParam("name"),
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.list")
	defer span.End()

	products, total, err := h.svc.List(ctx, count, page, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, toDTO(p))
	}

	return b.WithData(dto.ProductListResponse{Total: total, Items: items}).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.getByID", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(product)).Build()
}

func toDTO(product *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            product.ID,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		StockQuantity: product.StockQuantity,
	}
}
