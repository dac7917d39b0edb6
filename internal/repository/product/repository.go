package product

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

var repoTracer = otel.Tracer("github.com/Additional-Code/storefront/repository/product")

var (
	// ErrNotFound is returned when a product is missing or soft deleted.
	ErrNotFound = errors.New("product not found")
	// ErrConflict is returned when another active product has the same name.
	ErrConflict = errors.New("product name already exists")
	// ErrNotModified is returned when an update matched the product but changed no row.
	ErrNotModified = errors.New("product not modified")
)

// Repository encapsulates read/write access for products.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a product whose name is not used by any active product.
func (r *Repository) Create(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	ctx, span := repoTracer.Start(ctx, "ProductRepository.Create", trace.WithAttributes(attribute.String("product.name", product.Name)))
	defer span.End()

	if err := r.ensureNameFree(ctx, uuid.Nil, product.Name); err != nil {
		span.SetStatus(codes.Error, "conflict")
		return err
	}

	if _, err := r.writer.NewInsert().Model(product).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// GetByID fetches an active product.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.GetByID", trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	product := new(entity.Product)
	err := r.reader.NewSelect().Model(product).
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
	return product, nil
}

// Update writes the non-nil fields of patch.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch entity.ProductPatch) error {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Update", trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	exists, err := r.writer.NewSelect().Model((*entity.Product)(nil)).
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

	q := r.writer.NewUpdate().Model((*entity.Product)(nil)).Set("updated_at = ?", time.Now().UTC())
	if patch.Name != nil {
		if err := r.ensureNameFree(ctx, id, *patch.Name); err != nil {
			span.SetStatus(codes.Error, "conflict")
			return err
		}
		q = q.Set("name = ?", *patch.Name)
	}
	if patch.Amount != nil {
		q = q.Set("amount = ?", *patch.Amount)
	}
	if patch.Price != nil {
		q = q.Set("price = ?", *patch.Price)
	}

	res, err := q.Where("id = ?", id).Where("deleted_at IS NULL").Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "not modified")
		return ErrNotModified
	}
	return nil
}

// Delete soft deletes an active product.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Delete", trace.WithAttributes(attribute.String("product.id", id.String())))
	defer span.End()

	now := time.Now().UTC()
	res, err := r.writer.NewUpdate().Model((*entity.Product)(nil)).
		Set("deleted_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ensureNameFree(ctx context.Context, self uuid.UUID, name string) error {
	q := r.writer.NewSelect().Model((*entity.Product)(nil)).
		Where("name = ?", name).
		Where("deleted_at IS NULL")
	if self != uuid.Nil {
		q = q.Where("id <> ?", self)
	}
	taken, err := q.Exists(ctx)
	if err != nil {
		return err
	}
	if taken {
		return ErrConflict
	}
	return nil
}
