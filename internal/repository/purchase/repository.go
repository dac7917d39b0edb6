package purchase

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/storefront/repository/purchase")

var (
	// ErrNotFound is returned when a purchase is missing or soft deleted.
	ErrNotFound = errors.New("purchase not found")
	// ErrNotModified is returned when the record exists but the write matched no row.
	ErrNotModified = errors.New("purchase not modified")
	// ErrUnexpectedRowCount is returned when a write touches more or fewer rows than one.
	ErrUnexpectedRowCount = errors.New("unexpected purchase row count")
)

// Repository encapsulates read/write access for purchases.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
	now    func() time.Time
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new purchase. ID, version and timestamps are filled when unset.
func (r *Repository) Create(ctx context.Context, purchase *entity.Purchase) error {
	if purchase == nil {
		return errors.New("nil purchase")
	}
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	now := r.now()
	purchase.Version = 1
	purchase.CreatedAt = now
	purchase.UpdatedAt = now

	ctx, span := repoTracer.Start(ctx, "PurchaseRepository.Create", trace.WithAttributes(
		attribute.String("purchase.id", purchase.ID.String()),
		attribute.String("seller.id", purchase.SellerID.String()),
	))
	defer span.End()

	res, err := r.writer.NewInsert().Model(purchase).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return expectOneRow(span, res)
}

// GetByID fetches an active purchase using the read connection.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Purchase, error) {
	ctx, span := repoTracer.Start(ctx, "PurchaseRepository.GetByID", trace.WithAttributes(attribute.String("purchase.id", id.String())))
	defer span.End()

	purchase := new(entity.Purchase)
	err := r.reader.NewSelect().Model(purchase).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return purchase, nil
}

// Update writes the non-nil fields of patch. Every successful write bumps
// updated_at and version. When patch.ExpectedVersion is set the write only
// applies to that version.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch entity.PurchasePatch) error {
	ctx, span := repoTracer.Start(ctx, "PurchaseRepository.Update", trace.WithAttributes(attribute.String("purchase.id", id.String())))
	defer span.End()

	q := r.writer.NewUpdate().Model((*entity.Purchase)(nil)).
		Set("updated_at = ?", r.now()).
		Set("version = version + 1")
	if patch.SellerID != nil {
		q = q.Set("seller_id = ?", *patch.SellerID)
	}
	if patch.Status != nil {
		q = q.Set("purchase_status_id = ?", int16(*patch.Status))
	}
	q = q.Where("id = ?", id).Where("deleted_at IS NULL")
	if patch.ExpectedVersion != nil {
		q = q.Where("version = ?", *patch.ExpectedVersion)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return r.classifyWrite(ctx, span, id, res)
}

// Delete soft deletes an active purchase.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := repoTracer.Start(ctx, "PurchaseRepository.Delete", trace.WithAttributes(attribute.String("purchase.id", id.String())))
	defer span.End()

	now := r.now()
	res, err := r.writer.NewUpdate().Model((*entity.Purchase)(nil)).
		Set("deleted_at = ?", now).
		Set("updated_at = ?", now).
		Set("version = version + 1").
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	return r.classifyWrite(ctx, span, id, res)
}

// classifyWrite turns the affected row count of a guarded write into a
// sentinel. Zero rows means either the purchase is gone or a guard lost.
func (r *Repository) classifyWrite(ctx context.Context, span trace.Span, id uuid.UUID, res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return err
	}
	switch affected {
	case 1:
		return nil
	case 0:
		exists, err := r.writer.NewSelect().Model((*entity.Purchase)(nil)).
			Where("id = ?", id).
			Where("deleted_at IS NULL").
			Exists(ctx)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if !exists {
			span.SetStatus(codes.Error, "not found")
			return ErrNotFound
		}
		span.SetStatus(codes.Error, "not modified")
		return ErrNotModified
	default:
		span.SetStatus(codes.Error, "unexpected row count")
		return ErrUnexpectedRowCount
	}
}

func expectOneRow(span trace.Span, res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return err
	}
	if affected != 1 {
		span.SetStatus(codes.Error, "unexpected row count")
		return ErrUnexpectedRowCount
	}
	return nil
}
