package report

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mercury/internal/entity"
	repo "github.com/Additional-Code/mercury/internal/repository/report"
	"github.com/Additional-Code/mercury/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/mercury/service/report")

// Service aggregates per-order product counts into the reporting table.
type Service struct {
	repo   *repo.Repository
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{repo: p.Repository, logger: p.Logger}
}

// Generate upserts report rows for the given date (today when zero).
// Re-running the same date converges to the same rows.
func (s *Service) Generate(ctx context.Context, reportAt time.Time) ([]*entity.OrderReport, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.Generate")
	defer span.End()

	if reportAt.IsZero() {
		reportAt = time.Now().UTC()
	}
	rows, err := s.repo.UpsertForDate(ctx, reportAt)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to generate order report", errorbank.WithCause(err))
	}
	return rows, nil
}

// Get returns previously computed rows for the date, ordered by order id.
// It never triggers recomputation.
func (s *Service) Get(ctx context.Context, reportAt time.Time) ([]*entity.OrderReport, error) {
	ctx, span := serviceTracer.Start(ctx, "ReportService.Get")
	defer span.End()

	rows, err := s.repo.GetByDate(ctx, reportAt)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load order report", errorbank.WithCause(err))
	}
	return rows, nil
}
