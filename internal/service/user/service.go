package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mercury/internal/cache"
	"github.com/Additional-Code/mercury/internal/config"
	"github.com/Additional-Code/mercury/internal/entity"
	repo "github.com/Additional-Code/mercury/internal/repository/user"
	"github.com/Additional-Code/mercury/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/mercury/service/user")

// Service encapsulates business logic around users.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.UserTTL,
		logger:   p.Logger,
	}
}

// CreateInput carries the fields accepted when creating a user.
type CreateInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

// UpdateInput carries the optional fields of a user update.
type UpdateInput struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Description *string `json:"description"`
}

// Get retrieves a user by id, consulting cache when available. The store
// remains the source of truth; cache failures degrade to a plain read.
func (s *Service) Get(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Get", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if user, err := s.getFromCache(ctx, id); err == nil {
		return user, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("users cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("user %d not found", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, user); err != nil {
		s.logger.Warn("users cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return user, nil
}

// List returns one page of users plus the total count.
func (s *Service) List(ctx context.Context, count, page int, filter repo.Filter) ([]*entity.User, int, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.List")
	defer span.End()

	users, total, err := s.repo.List(ctx, count, page, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list users", errorbank.WithCause(err))
	}
	return users, total, nil
}

// Create validates and persists a new user.
func (s *Service) Create(ctx context.Context, input CreateInput) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Create")
	defer span.End()

	if err := validateCreate(input); err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:    input.Username,
		Email:       input.Email,
		Description: input.Description,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, errorbank.Conflict(fmt.Sprintf("user with email %s already exists", input.Email))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create user", errorbank.WithCause(err))
	}
	return user, nil
}

// Update applies a partial update and invalidates the cached entry. The
// entry is deleted rather than refreshed so a stale projection is never
// served.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "UserService.Update", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if input.Email != nil && !validEmail(*input.Email) {
		return nil, errorbank.BadRequest(fmt.Sprintf("invalid email: %s", *input.Email))
	}

	user, err := s.repo.UpdateByID(ctx, id, repo.Update{
		Username:    input.Username,
		Email:       input.Email,
		Description: input.Description,
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("user %d not found", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update user", errorbank.WithCause(err))
	}

	s.invalidate(ctx, id)
	return user, nil
}

// Delete removes a user and invalidates the cached entry. Dependent
// addresses and orders are removed by the schema's cascade rules.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "UserService.Delete", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound(fmt.Sprintf("user %d not found", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete user", errorbank.WithCause(err))
	}

	s.invalidate(ctx, id)
	return nil
}

func validateCreate(input CreateInput) error {
	if strings.TrimSpace(input.Username) == "" {
		return errorbank.BadRequest("username is required")
	}
	if !validEmail(input.Email) {
		return errorbank.BadRequest(fmt.Sprintf("invalid email: %s", input.Email))
	}
	return nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

func cacheKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.User, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, cacheKey(id))
	if err != nil {
		return nil, err
	}
	var user entity.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) storeInCache(ctx context.Context, user *entity.User) error {
	if s.cache == nil || user == nil {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cacheKey(user.ID), raw, s.cacheTTL)
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("users cache invalidate failed", zap.Int64("id", id), zap.Error(err))
	}
}
