package seller

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/storefront/internal/auth"
	"github.com/Additional-Code/storefront/internal/dto"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/presentation/http/response"
	service "github.com/Additional-Code/storefront/internal/service/seller"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/storefront/transport/http/seller")

// Handler exposes seller registration, self-service and login endpoints.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a seller Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. Registration and login are
// anonymous; the remaining routes only serve the authenticated seller.
func Register(e *echo.Echo, h *Handler, tokens *auth.TokenService) {
	e.POST("/api/v1/Login", h.login)
	e.POST("/api/v1/Seller", h.create)

	g := e.Group("/api/v1/Seller/:sellerId", auth.RequireBearer(tokens), requireSelf)
	g.GET("", h.getByID)
	g.PUT("", h.update)
	g.DELETE("", h.delete)
}

// requireSelf rejects tokens issued to a different seller than the path names.
func requireSelf(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("sellerId"))
		if err != nil {
			return response.New(c).WithError(errorbank.BadRequest("invalid seller id", errorbank.WithCause(err))).Build()
		}
		claimed, ok := auth.SellerIDFromContext(c)
		if !ok || claimed != id {
			return response.New(c).WithError(errorbank.Unauthorized("token does not belong to this seller")).Build()
		}
		return next(c)
	}
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateSellerRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sellers.create")
	defer span.End()

	seller := &entity.Seller{
		Cpf:       payload.Cpf,
		Name:      payload.Name,
		Email:     payload.Email,
		Telephone: payload.Telephone,
	}
	if err := h.svc.Create(ctx, seller); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(seller)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	id := uuid.MustParse(c.Param("sellerId"))

	ctx, span := httpTracer.Start(c.Request().Context(), "sellers.getByID", trace.WithAttributes(attribute.String("seller.id", id.String())))
	defer span.End()

	seller, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(seller)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	id := uuid.MustParse(c.Param("sellerId"))

	var payload dto.UpdateSellerRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sellers.update", trace.WithAttributes(attribute.String("seller.id", id.String())))
	defer span.End()

	seller, err := h.svc.Update(ctx, id, entity.SellerPatch{
		Cpf:       payload.Cpf,
		Name:      payload.Name,
		Email:     payload.Email,
		Telephone: payload.Telephone,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(seller)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id := uuid.MustParse(c.Param("sellerId"))

	ctx, span := httpTracer.Start(c.Request().Context(), "sellers.delete", trace.WithAttributes(attribute.String("seller.id", id.String())))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"id": id.String()}).Build()
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload dto.LoginRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "sellers.login")
	defer span.End()

	token, expires, err := h.svc.Login(ctx, payload.Cpf, payload.Email)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.TokenResponse{Token: token, ExpiresAt: expires}).Build()
}

func toDTO(seller *entity.Seller) dto.SellerResponse {
	return dto.SellerResponse{
		ID:        seller.ID,
		Cpf:       seller.Cpf,
		Name:      seller.Name,
		Email:     seller.Email,
		Telephone: seller.Telephone,
		CreatedAt: seller.CreatedAt,
		UpdatedAt: seller.UpdatedAt,
	}
}
