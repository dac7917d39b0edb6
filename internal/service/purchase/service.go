package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/messaging"
	repo "github.com/Additional-Code/storefront/internal/repository/purchase"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

const instrumentationName = "github.com/Additional-Code/storefront/service/purchase"

var (
	serviceTracer = otel.Tracer(instrumentationName)
	serviceMeter  = otel.Meter(instrumentationName)
)

// Messages returned to callers for rejected requests.
const (
	MsgInvalidSellerID     = "Invalid seller id"
	MsgSellerDoesNotExist  = "Seller doesn't exist"
	MsgNothingToUpdate     = "Nothing to update"
	MsgInvalidStatus       = "Invalid purchase status"
	MsgInvalidStatusOrder  = "Invalid purchase situation order"
	MsgPurchaseNotFound    = "purchase not found"
	MsgSellerNotFound      = "seller not found"
	MsgConcurrentlyChanged = "purchase was modified concurrently"
)

// CreateInput carries a purchase creation request.
type CreateInput struct {
	SellerID uuid.UUID
	// Status is accepted for compatibility and always normalised to WaitingPayment.
	Status *int
}

// UpdateInput carries a partial purchase update. Nil fields are left unchanged.
type UpdateInput struct {
	SellerID *uuid.UUID
	Status   *int
}

// Service coordinates purchase lifecycle operations.
type Service struct {
	store       Store
	sellers     SellerDirectory
	cache       cache.Store
	cacheTTL    time.Duration
	logger      *zap.Logger
	publisher   messaging.Client
	messaging   messagingConfig
	transitions metric.Int64Counter
	now         func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store     Store
	Sellers   SellerDirectory
	Cache     cache.Store     `optional:"true"`
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	transitions, err := serviceMeter.Int64Counter(
		"storefront.purchase.transitions",
		metric.WithDescription("Purchase status transitions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:       p.Store,
		sellers:     p.Sellers,
		cache:       p.Cache,
		cacheTTL:    p.Config.Cache.DefaultTTL,
		logger:      logger,
		publisher:   p.Publisher,
		messaging:   messagingConfig{enabled: p.Config.Messaging.Enabled},
		transitions: transitions,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create validates the seller and stores a new purchase in WaitingPayment.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Purchase, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseService.Create", trace.WithAttributes(attribute.String("seller.id", in.SellerID.String())))
	defer span.End()

	if in.SellerID == uuid.Nil {
		return nil, errorbank.BadRequest(MsgInvalidSellerID)
	}

	exists, err := s.sellers.Exists(ctx, in.SellerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seller lookup failed")
		return nil, errorbank.Internal("failed to look up seller", errorbank.WithCause(err))
	}
	if !exists {
		return nil, errorbank.BadRequest(MsgSellerDoesNotExist)
	}

	purchase := &entity.Purchase{
		SellerID: in.SellerID,
		Status:   entity.PurchaseStatusWaitingPayment,
	}
	if err := s.store.Create(ctx, purchase); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create purchase", errorbank.WithCause(err))
	}

	s.storeInCache(ctx, purchase)
	s.publish(ctx, Event{
		Type:       EventCreated,
		PurchaseID: purchase.ID,
		SellerID:   purchase.SellerID,
		Status:     int(purchase.Status),
		Version:    purchase.Version,
	})
	return purchase, nil
}

// Get retrieves an active purchase, consulting cache when available.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Purchase, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseService.Get", trace.WithAttributes(attribute.String("purchase.id", id.String())))
	defer span.End()

	var cached entity.Purchase
	if err := cache.GetJSON(ctx, s.cache, cacheKey(id), &cached); err == nil {
		if cached.DeletedAt != nil {
			return nil, errorbank.NotFound(MsgPurchaseNotFound)
		}
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("purchases cache read failed", zap.Stringer("id", id), zap.Error(err))
	}

	purchase, err := s.load(ctx, span, id)
	if err != nil {
		return nil, err
	}

	s.storeInCache(ctx, purchase)
	return purchase, nil
}

// Update applies a seller reassignment and/or a status transition.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*entity.Purchase, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseService.Update", trace.WithAttributes(attribute.String("purchase.id", id.String())))
	defer span.End()

	sellerSupplied := in.SellerID != nil && *in.SellerID != uuid.Nil
	if !sellerSupplied && (in.Status == nil || *in.Status < int(entity.PurchaseStatusWaitingPayment)) {
		return nil, errorbank.BadRequest(MsgNothingToUpdate)
	}

	var requested *entity.PurchaseStatus
	if in.Status != nil {
		status, err := entity.ParsePurchaseStatus(*in.Status)
		if err != nil {
			return nil, errorbank.BadRequest(MsgInvalidStatus, errorbank.WithCause(err), errorbank.WithDetail("purchaseStatusId", *in.Status))
		}
		requested = &status
	}

	current, err := s.load(ctx, span, id)
	if err != nil {
		return nil, err
	}

	sellerID := current.SellerID
	if sellerSupplied {
		sellerID = *in.SellerID
	}
	exists, err := s.sellers.Exists(ctx, sellerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seller lookup failed")
		return nil, errorbank.Internal("failed to look up seller", errorbank.WithCause(err))
	}
	if !exists {
		return nil, errorbank.NotFound(MsgSellerNotFound)
	}

	if err := entity.ValidateUpdate(current.Status, requested); err != nil {
		opts := []errorbank.Option{errorbank.WithCause(err), errorbank.WithDetail("current", current.Status.String())}
		if requested != nil {
			s.recordTransition(ctx, current.Status, *requested, "rejected")
			opts = append(opts, errorbank.WithDetail("requested", requested.String()))
		}
		return nil, errorbank.BadRequest(MsgInvalidStatusOrder, opts...)
	}

	version := current.Version
	patch := entity.PurchasePatch{Status: requested, ExpectedVersion: &version}
	if sellerSupplied {
		patch.SellerID = &sellerID
	}

	if err := s.store.Update(ctx, id, patch); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			s.tombstone(ctx, id)
			return nil, errorbank.NotFound(MsgPurchaseNotFound)
		case errors.Is(err, repo.ErrNotModified):
			if requested != nil {
				s.recordTransition(ctx, current.Status, *requested, "conflict")
			}
			return nil, errorbank.Conflict(MsgConcurrentlyChanged, errorbank.WithCause(err))
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to update purchase", errorbank.WithCause(err))
		}
	}

	updated := *current
	updated.SellerID = sellerID
	updated.Version = current.Version + 1
	updated.UpdatedAt = s.now()
	if requested != nil {
		updated.Status = *requested
	}

	s.storeInCache(ctx, &updated)
	if requested != nil {
		s.recordTransition(ctx, current.Status, *requested, "applied")
		s.publish(ctx, Event{
			Type:           EventStatusChanged,
			PurchaseID:     id,
			SellerID:       updated.SellerID,
			Status:         int(updated.Status),
			PreviousStatus: int(current.Status),
			Version:        updated.Version,
		})
	}
	return &updated, nil
}

// Delete soft deletes a purchase.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := serviceTracer.Start(ctx, "PurchaseService.Delete", trace.WithAttributes(attribute.String("purchase.id", id.String())))
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound(MsgPurchaseNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete purchase", errorbank.WithCause(err))
	}

	s.tombstone(ctx, id)
	s.publish(ctx, Event{Type: EventDeleted, PurchaseID: id})
	return nil
}

func (s *Service) load(ctx context.Context, span trace.Span, id uuid.UUID) (*entity.Purchase, error) {
	purchase, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound(MsgPurchaseNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load purchase", errorbank.WithCause(err))
	}
	return purchase, nil
}

func (s *Service) recordTransition(ctx context.Context, from, to entity.PurchaseStatus, outcome string) {
	s.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
		attribute.String("outcome", outcome),
	))
}

func (s *Service) publish(ctx context.Context, event Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event.OccurredAt = s.now()

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal purchase event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	msg := messaging.Message{
		Key:     []byte(event.PurchaseID.String()),
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEventType: event.Type},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("publish purchase event", zap.String("type", event.Type), zap.Stringer("id", event.PurchaseID), zap.Error(err))
	}
}

func cacheKey(id uuid.UUID) string {
	return "purchases:" + id.String()
}

// storeInCache never replaces a cached copy carrying a higher version.
func (s *Service) storeInCache(ctx context.Context, purchase *entity.Purchase) {
	s.cacheVersion(ctx, purchase, purchase.Version)
}

// tombstone marks id as deleted above every possible version.
func (s *Service) tombstone(ctx context.Context, id uuid.UUID) {
	deletedAt := s.now()
	s.cacheVersion(ctx, &entity.Purchase{ID: id, DeletedAt: &deletedAt}, math.MaxInt64)
}

func (s *Service) cacheVersion(ctx context.Context, purchase *entity.Purchase, version int64) {
	if s.cache == nil {
		return
	}
	written, err := cache.SetJSONIfNewer(ctx, s.cache, cacheKey(purchase.ID), purchase, version, s.cacheTTL)
	if err != nil {
		s.logger.Warn("purchases cache write failed", zap.Stringer("id", purchase.ID), zap.Error(err))
		return
	}
	if !written {
		s.logger.Debug("purchases cache holds a newer copy", zap.Stringer("id", purchase.ID), zap.Int64("version", version))
	}
}
