package seller

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/auth"
	"github.com/Additional-Code/storefront/internal/entity"
	repo "github.com/Additional-Code/storefront/internal/repository/seller"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/storefront/service/seller")

// Service manages sellers and their bearer tokens.
type Service struct {
	repo   *repo.Repository
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(repository *repo.Repository, tokens *auth.TokenService, logger *zap.Logger) *Service {
	return &Service{repo: repository, tokens: tokens, logger: logger}
}

// Create registers a seller. cpf, email and telephone must be unused.
func (s *Service) Create(ctx context.Context, seller *entity.Seller) error {
	if seller == nil {
		return errorbank.BadRequest("seller payload is required")
	}
	ctx, span := serviceTracer.Start(ctx, "SellerService.Create")
	defer span.End()

	seller.Cpf = NormalizeCpf(seller.Cpf)
	seller.Email = strings.ToLower(strings.TrimSpace(seller.Email))

	if err := s.repo.Create(ctx, seller); err != nil {
		return s.mapError(span, err, "failed to create seller")
	}
	s.logger.Info("seller registered", zap.Stringer("id", seller.ID))
	return nil
}

// Get returns an active seller.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Seller, error) {
	ctx, span := serviceTracer.Start(ctx, "SellerService.Get", trace.WithAttributes(attribute.String("seller.id", id.String())))
	defer span.End()

	seller, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(span, err, "failed to load seller")
	}
	return seller, nil
}

// Update applies the non-nil fields of patch.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch entity.SellerPatch) (*entity.Seller, error) {
	ctx, span := serviceTracer.Start(ctx, "SellerService.Update", trace.WithAttributes(attribute.String("seller.id", id.String())))
	defer span.End()

	if patch.IsEmpty() {
		return nil, errorbank.BadRequest("Nothing to update")
	}
	if patch.Cpf != nil {
		cpf := NormalizeCpf(*patch.Cpf)
		patch.Cpf = &cpf
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		patch.Email = &email
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, s.mapError(span, err, "failed to update seller")
	}
	return s.Get(ctx, id)
}

// Delete soft deletes a seller.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := serviceTracer.Start(ctx, "SellerService.Delete", trace.WithAttributes(attribute.String("seller.id", id.String())))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(span, err, "failed to delete seller")
	}
	return nil
}

// Login exchanges cpf and email for a bearer token.
func (s *Service) Login(ctx context.Context, cpf, email string) (string, time.Time, error) {
	ctx, span := serviceTracer.Start(ctx, "SellerService.Login")
	defer span.End()

	seller, err := s.repo.FindByCredentials(ctx, NormalizeCpf(cpf), strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repo.ErrNotFound) {
		return "", time.Time{}, errorbank.Forbidden("invalid credentials")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return "", time.Time{}, errorbank.Internal("failed to authenticate seller", errorbank.WithCause(err))
	}

	token, expires, err := s.tokens.Issue(seller.ID)
	if err != nil {
		span.RecordError(err)
		return "", time.Time{}, errorbank.Internal("failed to issue token", errorbank.WithCause(err))
	}
	return token, expires, nil
}

func (s *Service) mapError(span trace.Span, err error, internal string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("seller not found")
	case errors.Is(err, repo.ErrConflict):
		return errorbank.Conflict("seller already exists", errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal(internal, errorbank.WithCause(err))
	}
}

// NormalizeCpf strips formatting so "123.456.789-09" and "12345678909" compare equal.
func NormalizeCpf(cpf string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cpf)
}
