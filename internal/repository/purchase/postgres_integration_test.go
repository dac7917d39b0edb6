//go:build integration

package purchase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/migration"
	"github.com/Additional-Code/storefront/internal/repository/purchase"
	"github.com/Additional-Code/storefront/internal/repository/seller"
)

func newPostgres(t *testing.T) *database.Connections {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := config.Config{Database: config.Database{
		Driver:          "pgx",
		WriterDSN:       dsn,
		MaxOpenConns:    8,
		MaxIdleConns:    8,
		MaxConnLifetime: time.Minute,
	}}
	conns, err := database.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })
	require.NoError(t, conns.Ping(ctx))

	mig, err := migration.New(cfg, conns, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, mig.Up(ctx))
	return conns
}

func TestPostgres_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	conns := newPostgres(t)
	ctx := context.Background()

	s := &entity.Seller{Cpf: "12345678909", Name: "Maria", Email: "maria@example.com", Telephone: "+55(11)91234-5678"}
	require.NoError(t, seller.NewRepository(conns).Create(ctx, s))

	repo := purchase.NewRepository(conns)
	p := &entity.Purchase{SellerID: s.ID, Status: entity.PurchaseStatusWaitingPayment}
	require.NoError(t, repo.Create(ctx, p))

	targets := []entity.PurchaseStatus{entity.PurchaseStatusPaymentApproved, entity.PurchaseStatusCancelled}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			version := p.Version
			errs[i] = repo.Update(ctx, p.ID, entity.PurchasePatch{Status: &target, ExpectedVersion: &version})
		}()
	}
	wg.Wait()

	var applied, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			applied++
		case errors.Is(err, purchase.ErrNotModified):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, conflicts)

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stored.Version)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), purchase.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, uuid.New(), entity.PurchasePatch{Status: &targets[0]}), purchase.ErrNotFound)
}
