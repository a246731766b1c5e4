package address

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
)

// ErrNotFound is returned when an address is missing.
var ErrNotFound = errors.New("address not found")

// Repository encapsulates read/write access for addresses.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx bun.Tx) *Repository {
	return &Repository{writer: tx, reader: tx}
}

// GetByID fetches an address by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Address, error) {
	addr := new(entity.Address)
	err := r.reader.NewSelect().Model(addr).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// FindExisting looks up an address for the user matching the full field
// tuple, the natural key used to dedup addresses during order placement.
func (r *Repository) FindExisting(ctx context.Context, userID int64, street, city, state, zip, country string) (*entity.Address, error) {
	addr := new(entity.Address)
	err := r.reader.NewSelect().Model(addr).
		Where("user_id = ?", userID).
		Where("street = ?", street).
		Where("city = ?", city).
		Where("state = ?", state).
		Where("zip = ?", zip).
		Where("country = ?", country).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// Create persists a new address.
func (r *Repository) Create(ctx context.Context, addr *entity.Address) error {
	if addr == nil {
		return errors.New("nil address")
	}
	now := time.Now().UTC()
	if addr.CreatedAt.IsZero() {
		addr.CreatedAt = now
	}
	addr.UpdatedAt = now

	_, err := r.writer.NewInsert().Model(addr).Exec(ctx)
	return err
}
