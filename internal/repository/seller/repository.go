package seller

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

var repoTracer = otel.Tracer("github.com/Additional-Code/storefront/repository/seller")

var (
	// ErrNotFound is returned when a seller is missing or soft deleted.
	ErrNotFound = errors.New("seller not found")
	// ErrConflict is returned when cpf, email or telephone is already taken.
	ErrConflict = errors.New("seller already exists")
)

// Repository encapsulates read/write access for sellers.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Exists reports whether an active seller with id is stored.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "SellerRepository.Exists", trace.WithAttributes(attribute.String("seller.id", id.String())))
	defer span.End()

	exists, err := r.reader.NewSelect().Model((*entity.Seller)(nil)).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
	}
	return exists, err
}

// Create inserts a seller after checking that its identifying fields are free.
func (r *Repository) Create(ctx context.Context, seller *entity.Seller) error {
	if seller == nil {
		return errors.New("nil seller")
	}
	if seller.ID == uuid.Nil {
		seller.ID = uuid.New()
	}
	now := time.Now().UTC()
	seller.CreatedAt = now
	seller.UpdatedAt = now

	ctx, span := repoTracer.Start(ctx, "SellerRepository.Create", trace.WithAttributes(attribute.String("seller.id", seller.ID.String())))
	defer span.End()

	if err := r.ensureUnique(ctx, uuid.Nil, seller.Cpf, seller.Email, seller.Telephone); err != nil {
		span.SetStatus(codes.Error, "conflict")
		return err
	}

	if _, err := r.writer.NewInsert().Model(seller).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// GetByID fetches an active seller.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Seller, error) {
	ctx, span := repoTracer.Start(ctx, "SellerRepository.GetByID", trace.WithAttributes(attribute.String("seller.id", id.String())))
	defer span.End()

	seller := new(entity.Seller)
	err := r.reader.NewSelect().Model(seller).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Scan(ctx)
	return r.scanResult(span, seller, err)
}

// FindByCredentials looks up the active seller owning both cpf and email.
func (r *Repository) FindByCredentials(ctx context.Context, cpf, email string) (*entity.Seller, error) {
	ctx, span := repoTracer.Start(ctx, "SellerRepository.FindByCredentials")
	defer span.End()

	seller := new(entity.Seller)
	err := r.reader.NewSelect().Model(seller).
		Where("cpf = ?", cpf).
		Where("email = ?", email).
		Where("deleted_at IS NULL").
		Limit(1).
		Scan(ctx)
	return r.scanResult(span, seller, err)
}

// Update writes the non-nil fields of patch.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch entity.SellerPatch) error {
	ctx, span := repoTracer.Start(ctx, "SellerRepository.Update", trace.WithAttributes(attribute.String("seller.id", id.String())))
	defer span.End()

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	cpf, email, telephone := current.Cpf, current.Email, current.Telephone
	q := r.writer.NewUpdate().Model((*entity.Seller)(nil)).Set("updated_at = ?", time.Now().UTC())
	if patch.Cpf != nil {
		cpf = *patch.Cpf
		q = q.Set("cpf = ?", cpf)
	}
	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
	}
	if patch.Email != nil {
		email = *patch.Email
		q = q.Set("email = ?", email)
	}
	if patch.Telephone != nil {
		telephone = *patch.Telephone
		q = q.Set("telephone = ?", telephone)
	}

	if err := r.ensureUnique(ctx, id, cpf, email, telephone); err != nil {
		span.SetStatus(codes.Error, "conflict")
		return err
	}

	res, err := q.Where("id = ?", id).Where("deleted_at IS NULL").Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return requireRow(span, res)
}

// Delete soft deletes an active seller.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := repoTracer.Start(ctx, "SellerRepository.Delete", trace.WithAttributes(attribute.String("seller.id", id.String())))
	defer span.End()

	now := time.Now().UTC()
	res, err := r.writer.NewUpdate().Model((*entity.Seller)(nil)).
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
	return requireRow(span, res)
}

func (r *Repository) ensureUnique(ctx context.Context, self uuid.UUID, cpf, email, telephone string) error {
	q := r.writer.NewSelect().Model((*entity.Seller)(nil)).
		Where("deleted_at IS NULL").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("cpf = ?", cpf).
				WhereOr("email = ?", email).
				WhereOr("telephone = ?", telephone)
		})
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

func (r *Repository) scanResult(span trace.Span, seller *entity.Seller, err error) (*entity.Seller, error) {
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return seller, nil
}

func requireRow(span trace.Span, res sql.Result) error {
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
