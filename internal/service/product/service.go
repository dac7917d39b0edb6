package product

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/storefront/internal/entity"
	repo "github.com/Additional-Code/storefront/internal/repository/product"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/storefront/service/product")

// Service manages the product catalog.
type Service struct {
	repo *repo.Repository
}

// NewService wires a new Service instance.
func NewService(repository *repo.Repository) *Service {
	return &Service{repo: repository}
}

// Create adds a product. Price must be positive and amount, when set, not negative.
func (s *Service) Create(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errorbank.BadRequest("product payload is required")
	}
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return errorbank.BadRequest("Invalid product name")
	}
	if !product.Price.IsPositive() {
		return errorbank.BadRequest("Invalid product price")
	}
	if product.Amount != nil && *product.Amount < 0 {
		return errorbank.BadRequest("Invalid product amount")
	}
	product.Price = product.Price.Round(2)

	ctx, span := serviceTracer.Start(ctx, "ProductService.Create", trace.WithAttributes(attribute.String("product.name", product.Name)))
	defer span.End()

	if err := s.repo.Create(ctx, product); err != nil {
		return mapError(span, err, "failed to create product")
	}
	return nil
}

// Get returns an active product.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Get", trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(span, err, "failed to load product")
	}
	return product, nil
}

// Update applies the valid non-nil fields of patch.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch entity.ProductPatch) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Update", trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			patch.Name = nil
		} else {
			patch.Name = &name
		}
	}
	if patch.Amount != nil && *patch.Amount < 0 {
		return nil, errorbank.BadRequest("Invalid product amount")
	}
	if patch.Price != nil {
		if !patch.Price.IsPositive() {
			patch.Price = nil
		} else {
			price := patch.Price.Round(2)
			patch.Price = &price
		}
	}
	if patch.IsEmpty() {
		return nil, errorbank.BadRequest("Nothing to update")
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, mapError(span, err, "failed to update product")
	}
	return s.Get(ctx, id)
}

// Delete soft deletes a product.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Delete", trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapError(span, err, "failed to delete product")
	}
	return nil
}

func mapError(span trace.Span, err error, internal string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("product not found")
	case errors.Is(err, repo.ErrConflict):
		return errorbank.Conflict("product already exists", errorbank.WithCause(err))
	case errors.Is(err, repo.ErrNotModified):
		return errorbank.Conflict("product was not modified", errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal(internal, errorbank.WithCause(err))
	}
}
