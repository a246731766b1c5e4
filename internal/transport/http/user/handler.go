package user

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/mercury/internal/dto"
	"github.com/Additional-Code/mercury/internal/entity"
	"github.com/Additional-Code/mercury/internal/presentation/http/response"
	repo "github.com/Additional-Code/mercury/internal/repository/user"
	service "github.com/Additional-Code/mercury/internal/service/user"
	"github.com/Additional-Code/mercury/internal/transport/http/params"
	"github.com/Additional-Code/mercury/pkg/errorbank"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/mercury/transport/http/user")

// Handler exposes user endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a user Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/users")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	count, page := params.Pagination(c)
	filter := repo.Filter{
		Username: c.QueryParam("username"),
		Email:    c.QueryParam("email"),
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.list")
	defer span.End()

	users, total, err := h.svc.List(ctx, count, page, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toDTO(u))
	}

	return b.WithData(dto.UserListResponse{Total: total, Items: items}).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.getByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(user)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var input service.CreateInput
	if err := c.Bind(&input); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.create")
	span.SetAttributes(attribute.String("user.email", input.Email))
	defer span.End()

	user, err := h.svc.Create(ctx, input)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(user)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var input service.UpdateInput
	if err := c.Bind(&input); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.update", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := h.svc.Update(ctx, id, input)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(user)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.delete", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.Build()
}

func toDTO(user *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Description: user.Description,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
