package report

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/mercury/internal/dto"
	"github.com/Additional-Code/mercury/internal/entity"
	"github.com/Additional-Code/mercury/internal/presentation/http/response"
	service "github.com/Additional-Code/mercury/internal/service/report"
	"github.com/Additional-Code/mercury/pkg/errorbank"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/mercury/transport/http/report")

const dateLayout = "2006-01-02"

// Handler exposes the daily order report over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a report Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/report", h.get)
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	reportAt := time.Now().UTC()
	if raw := c.QueryParam("report_at"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return b.WithError(errorbank.BadRequest("report_at must be YYYY-MM-DD", errorbank.WithCause(err))).Build()
		}
		reportAt = parsed
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "report.get", trace.WithAttributes(
		attribute.String("report.at", reportAt.Format(dateLayout)),
	))
	defer span.End()

	rows, err := h.svc.Get(ctx, reportAt)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(reportAt, rows)).Build()
}

func toDTO(reportAt time.Time, rows []*entity.OrderReport) dto.OrderReportResponse {
	items := make([]dto.OrderReportItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.OrderReportItem{
			ReportAt:     row.ReportAt.Format(dateLayout),
			OrderID:      row.OrderID,
			CountProduct: row.CountProduct,
		})
	}

	return dto.OrderReportResponse{
		ReportAt: reportAt.UTC().Format(dateLayout),
		Total:    len(items),
		Items:    items,
	}
}
