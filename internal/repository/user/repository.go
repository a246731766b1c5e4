package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/mercury/repository/user")

// ErrNotFound is returned when a user is missing.
var ErrNotFound = errors.New("user not found")

// ErrEmailTaken signals that an insert lost a uniqueness race on email.
// Callers recover by re-fetching the existing record; the conflict is never
// surfaced to API clients.
var ErrEmailTaken = errors.New("email already taken")

// Filter enumerates the supported equality filters for user listings.
type Filter struct {
	Username string
	Email    string
}

// Update carries the partial fields of a user update; nil means unchanged.
type Update struct {
	Username    *string
	Email       *string
	Description *string
}

// Repository encapsulates read/write access for users.
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

// GetByID fetches a user by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user := new(entity.User)
	err := r.reader.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return user, nil
}

// GetByEmail fetches a user by its email natural key.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByEmail")
	defer span.End()

	user := new(entity.User)
	err := r.reader.NewSelect().Model(user).Where("email = ?", email).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return user, nil
}

// List returns one page of users plus the total count under the same filter.
// Page is 1-indexed; ordering is newest first.
func (r *Repository) List(ctx context.Context, count, page int, filter Filter) ([]*entity.User, int, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.List")
	defer span.End()

	var users []*entity.User
	q := r.applyFilter(r.reader.NewSelect().Model(&users), filter)
	err := q.Order("created_at DESC").Limit(count).Offset((page - 1) * count).Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}

	total, err := r.applyFilter(r.reader.NewSelect().Model((*entity.User)(nil)), filter).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return nil, 0, err
	}
	return users, total, nil
}

// Create persists a new user. A duplicate email does not insert and is
// reported as ErrEmailTaken.
func (r *Repository) Create(ctx context.Context, user *entity.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	ctx, span := repoTracer.Start(ctx, "UserRepository.Create")
	defer span.End()

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	res, err := r.writer.NewInsert().Model(user).
		On("CONFLICT (email) DO NOTHING").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEmailTaken
	}
	return nil
}

// UpdateByID applies the non-nil fields of upd and returns the fresh record.
func (r *Repository) UpdateByID(ctx context.Context, id int64, upd Update) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.UpdateByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user := new(entity.User)
	err := r.writer.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	if upd.Username != nil {
		user.Username = *upd.Username
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.Description != nil {
		user.Description = *upd.Description
	}
	user.UpdatedAt = time.Now().UTC()

	if _, err := r.writer.NewUpdate().Model(user).WherePK().Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	return user, nil
}

// DeleteByID removes a user. Missing rows are reported as ErrNotFound.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.DeleteByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.User)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) applyFilter(q *bun.SelectQuery, filter Filter) *bun.SelectQuery {
	if filter.Username != "" {
		q = q.Where("username = ?", filter.Username)
	}
	if filter.Email != "" {
		q = q.Where("email = ?", filter.Email)
	}
	return q
}
