package purchase

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
	service "github.com/Additional-Code/storefront/internal/service/purchase"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/storefront/transport/http/purchase")

// Handler exposes purchase endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a purchase Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. Every route needs a bearer token.
func Register(e *echo.Echo, h *Handler, tokens *auth.TokenService) {
	g := e.Group("/api/v1/Purchase", auth.RequireBearer(tokens))
	g.POST("", h.create)
	g.GET("/:purchaseId", h.getByID)
	g.PUT("/:purchaseId", h.update)
	g.DELETE("/:purchaseId", h.delete)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreatePurchaseRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchases.create",
		trace.WithAttributes(attribute.String("seller.id", payload.SellerID.String())))
	defer span.End()

	purchase, err := h.svc.Create(ctx, service.CreateInput{SellerID: payload.SellerID, Status: payload.PurchaseStatusID})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(purchase)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchases.getByID", trace.WithAttributes(attribute.String("purchase.id", id.String())))
	defer span.End()

	purchase, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(purchase)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.UpdatePurchaseRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchases.update", trace.WithAttributes(attribute.String("purchase.id", id.String())))
	defer span.End()

	purchase, err := h.svc.Update(ctx, id, service.UpdateInput{SellerID: payload.SellerID, Status: payload.PurchaseStatusID})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(purchase)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchases.delete", trace.WithAttributes(attribute.String("purchase.id", id.String())))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]string{"id": id.String()}).Build()
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("purchaseId"))
	if err != nil {
		return uuid.Nil, errorbank.BadRequest("invalid purchase id", errorbank.WithCause(err))
	}
	return id, nil
}

func toDTO(purchase *entity.Purchase) dto.PurchaseResponse {
	return dto.PurchaseResponse{
		ID:               purchase.ID,
		SellerID:         purchase.SellerID,
		PurchaseStatusID: int(purchase.Status),
		PurchaseStatus:   purchase.Status.String(),
		Version:          purchase.Version,
		CreatedAt:        purchase.CreatedAt,
		UpdatedAt:        purchase.UpdatedAt,
	}
}
