package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/entity"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All seeds sellers then products.
func (s *Seeder) All(ctx context.Context) error {
	if err := s.Sellers(ctx); err != nil {
		return err
	}
	return s.Products(ctx)
}

// Sellers seeds demo sellers whose cpf is not taken yet.
func (s *Seeder) Sellers(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Seller{
		{Cpf: "52998224725", Name: "Ana Lima", Email: "ana.lima@example.com", Telephone: "+55(11)98765-4321"},
		{Cpf: "16899535009", Name: "Bruno Costa", Email: "bruno.costa@example.com", Telephone: "+55(21)3456-7890"},
	}

	inserted := 0
	for _, sample := range samples {
		seller := sample
		exists, err := s.db.NewSelect().Model((*entity.Seller)(nil)).
			Where("cpf = ?", seller.Cpf).
			Where("deleted_at IS NULL").
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check seller %s: %w", seller.Cpf, err)
		}
		if exists {
			continue
		}

		seller.ID = uuid.New()
		seller.CreatedAt = now
		seller.UpdatedAt = now
		if _, err := s.db.NewInsert().Model(&seller).Exec(ctx); err != nil {
			return fmt.Errorf("insert seller %s: %w", seller.Cpf, err)
		}
		inserted++
	}

	if s.logger != nil {
		s.logger.Info("seeded sellers", zap.Int("inserted", inserted), zap.Int("samples", len(samples)))
	}
	return nil
}

// Products seeds demo catalog items whose name is not taken yet.
func (s *Seeder) Products(ctx context.Context) error {
	now := time.Now().UTC()
	amount := func(v int16) *int16 { return &v }
	samples := []entity.Product{
		{Name: "Notebook", Amount: amount(10), Price: decimal.RequireFromString("4599.90")},
		{Name: "Mouse", Amount: amount(150), Price: decimal.RequireFromString("89.90")},
		{Name: "Gift card", Price: decimal.RequireFromString("50.00")},
	}

	inserted := 0
	for _, sample := range samples {
		product := sample
		exists, err := s.db.NewSelect().Model((*entity.Product)(nil)).
			Where("name = ?", product.Name).
			Where("deleted_at IS NULL").
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check product %s: %w", product.Name, err)
		}
		if exists {
			continue
		}

		product.ID = uuid.New()
		product.CreatedAt = now
		product.UpdatedAt = now
		if _, err := s.db.NewInsert().Model(&product).Exec(ctx); err != nil {
			return fmt.Errorf("insert product %s: %w", product.Name, err)
		}
		inserted++
	}

	if s.logger != nil {
		s.logger.Info("seeded products", zap.Int("inserted", inserted), zap.Int("samples", len(samples)))
	}
	return nil
}
