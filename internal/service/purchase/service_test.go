package purchase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/messaging"
	repo "github.com/Additional-Code/storefront/internal/repository/purchase"
	"github.com/Additional-Code/storefront/internal/service/purchase"
	"github.com/Additional-Code/storefront/internal/service/purchase/mock"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

type fixture struct {
	store   *mock.MockStore
	sellers *mock.MockSellerDirectory
	cache   *cache.MemoryStore
	bus     *messaging.MemoryClient
	svc     *purchase.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		store:   mock.NewMockStore(ctrl),
		sellers: mock.NewMockSellerDirectory(ctrl),
		cache:   cache.NewMemoryStore(time.Minute),
		bus:     messaging.NewMemoryClient("purchases.events"),
	}

	cfg := config.Config{}
	cfg.Messaging.Enabled = true
	cfg.Cache.DefaultTTL = time.Minute

	svc, err := purchase.NewService(purchase.Params{
		Store:     f.store,
		Sellers:   f.sellers,
		Cache:     f.cache,
		Config:    cfg,
		Logger:    zaptest.NewLogger(t),
		Publisher: f.bus,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) nextEvent(t *testing.T) purchase.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var event purchase.Event
	err := f.bus.Consume(ctx, func(_ context.Context, msg messaging.Message) error {
		require.NoError(t, json.Unmarshal(msg.Value, &event))
		assert.Equal(t, event.Type, msg.Headers[messaging.HeaderEventType])
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled, "expected a published event")
	return event
}

func assertAppError(t *testing.T, err error, kind errorbank.Kind, message string) {
	t.Helper()
	require.Error(t, err)
	appErr := errorbank.From(err)
	assert.Equal(t, kind, appErr.Kind())
	if message != "" {
		assert.Equal(t, message, appErr.Message())
	}
}

func intPtr(v int) *int { return &v }

func stored(seller uuid.UUID, status entity.PurchaseStatus) *entity.Purchase {
	return &entity.Purchase{ID: uuid.New(), SellerID: seller, Status: status, Version: 4}
}

func TestService_Create(t *testing.T) {
	seller := uuid.New()

	tests := []struct {
		name    string
		in      purchase.CreateInput
		prepare func(f *fixture)
		kind    errorbank.Kind
		message string
	}{
		{
			name:    "nil seller never reaches the store",
			in:      purchase.CreateInput{SellerID: uuid.Nil},
			prepare: func(*fixture) {},
			kind:    errorbank.KindBadRequest,
			message: purchase.MsgInvalidSellerID,
		},
		{
			name: "unknown seller",
			in:   purchase.CreateInput{SellerID: seller},
			prepare: func(f *fixture) {
				f.sellers.EXPECT().Exists(gomock.Any(), seller).Return(false, nil)
			},
			kind:    errorbank.KindBadRequest,
			message: purchase.MsgSellerDoesNotExist,
		},
		{
			name: "seller lookup failure",
			in:   purchase.CreateInput{SellerID: seller},
			prepare: func(f *fixture) {
				f.sellers.EXPECT().Exists(gomock.Any(), seller).Return(false, errors.New("db down"))
			},
			kind: errorbank.KindInternal,
		},
		{
			name: "store failure",
			in:   purchase.CreateInput{SellerID: seller},
			prepare: func(f *fixture) {
				f.sellers.EXPECT().Exists(gomock.Any(), seller).Return(true, nil)
				f.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repo.ErrUnexpectedRowCount)
			},
			kind: errorbank.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.prepare(f)

			got, err := f.svc.Create(context.Background(), tt.in)
			assert.Nil(t, got)
			assertAppError(t, err, tt.kind, tt.message)
		})
	}
}

func TestService_CreateNormalisesStatus(t *testing.T) {
	seller := uuid.New()

	for _, requested := range []*int{nil, intPtr(0), intPtr(1), intPtr(2), intPtr(4), intPtr(6), intPtr(99)} {
		name := "nil"
		if requested != nil {
			name = fmt.Sprint(*requested)
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.sellers.EXPECT().Exists(gomock.Any(), seller).Return(true, nil)
			f.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *entity.Purchase) error {
				assert.Equal(t, entity.PurchaseStatusWaitingPayment, p.Status)
				assert.Equal(t, seller, p.SellerID)
				p.ID = uuid.New()
				p.Version = 1
				return nil
			})

			got, err := f.svc.Create(context.Background(), purchase.CreateInput{SellerID: seller, Status: requested})
			require.NoError(t, err)
			assert.Equal(t, entity.PurchaseStatusWaitingPayment, got.Status)

			event := f.nextEvent(t)
			assert.Equal(t, purchase.EventCreated, event.Type)
			assert.Equal(t, got.ID, event.PurchaseID)
			assert.Equal(t, int(entity.PurchaseStatusWaitingPayment), event.Status)
		})
	}
}

func TestService_GetUsesCache(t *testing.T) {
	f := newFixture(t)
	p := stored(uuid.New(), entity.PurchaseStatusShipping)
	f.store.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil).Times(1)

	for i := 0; i < 2; i++ {
		got, err := f.svc.Get(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, entity.PurchaseStatusShipping, got.Status)
	}
}

func TestService_GetMissing(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.EXPECT().GetByID(gomock.Any(), id).Return(nil, repo.ErrNotFound)

	_, err := f.svc.Get(context.Background(), id)
	assertAppError(t, err, errorbank.KindNotFound, "")
}

func TestService_UpdateRejectsBeforeStore(t *testing.T) {
	nilSeller := uuid.Nil

	tests := []struct {
		name    string
		in      purchase.UpdateInput
		message string
	}{
		{name: "empty", in: purchase.UpdateInput{}, message: purchase.MsgNothingToUpdate},
		{name: "nil seller only", in: purchase.UpdateInput{SellerID: &nilSeller}, message: purchase.MsgNothingToUpdate},
		{name: "status below range", in: purchase.UpdateInput{Status: intPtr(0)}, message: purchase.MsgNothingToUpdate},
		{name: "nil seller and negative status", in: purchase.UpdateInput{SellerID: &nilSeller, Status: intPtr(-3)}, message: purchase.MsgNothingToUpdate},
		{name: "status above range", in: purchase.UpdateInput{Status: intPtr(7)}, message: purchase.MsgInvalidStatus},
		{name: "seller with bad status", in: purchase.UpdateInput{SellerID: ptr(uuid.New()), Status: intPtr(0)}, message: purchase.MsgInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Update(context.Background(), uuid.New(), tt.in)
			assertAppError(t, err, errorbank.KindBadRequest, tt.message)
		})
	}
}

func TestService_UpdateMissingPurchase(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.EXPECT().GetByID(gomock.Any(), id).Return(nil, repo.ErrNotFound)

	_, err := f.svc.Update(context.Background(), id, purchase.UpdateInput{Status: intPtr(int(entity.PurchaseStatusDelivered))})
	assertAppError(t, err, errorbank.KindNotFound, purchase.MsgPurchaseNotFound)
}

func TestService_UpdateSellerLookup(t *testing.T) {
	current := uuid.New()
	replacement := uuid.New()

	t.Run("falls back to current seller", func(t *testing.T) {
		f := newFixture(t)
		p := stored(current, entity.PurchaseStatusWaitingPayment)
		f.store.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil)
		f.sellers.EXPECT().Exists(gomock.Any(), current).Return(false, nil)

		_, err := f.svc.Update(context.Background(), p.ID, purchase.UpdateInput{Status: intPtr(2)})
		assertAppError(t, err, errorbank.KindNotFound, purchase.MsgSellerNotFound)
	})

	t.Run("reassigns to supplied seller", func(t *testing.T) {
		f := newFixture(t)
		p := stored(current, entity.PurchaseStatusCancelled)
		f.store.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil)
		f.sellers.EXPECT().Exists(gomock.Any(), replacement).Return(true, nil)
		f.store.EXPECT().Update(gomock.Any(), p.ID, gomock.Any()).DoAndReturn(func(_ context.Context, _ uuid.UUID, patch entity.PurchasePatch) error {
			require.NotNil(t, patch.SellerID)
			assert.Equal(t, replacement, *patch.SellerID)
			assert.Nil(t, patch.Status)
			require.NotNil(t, patch.ExpectedVersion)
			assert.Equal(t, p.Version, *patch.ExpectedVersion)
			return nil
		})

		got, err := f.svc.Update(context.Background(), p.ID, purchase.UpdateInput{SellerID: &replacement})
		require.NoError(t, err)
		assert.Equal(t, replacement, got.SellerID)
		assert.Equal(t, entity.PurchaseStatusCancelled, got.Status)
		assert.Equal(t, p.Version+1, got.Version)
	})
}

func TestService_UpdateSellerOnly(t *testing.T) {
	for _, status := range entity.PurchaseStatuses() {
		t.Run(status.String(), func(t *testing.T) {
			f := newFixture(t)
			current := uuid.New()
			replacement := uuid.New()
			p := stored(current, status)
			f.store.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil)
			f.sellers.EXPECT().Exists(gomock.Any(), replacement).Return(true, nil)

			if !status.IsTerminal() {
				_, err := f.svc.Update(context.Background(), p.ID, purchase.UpdateInput{SellerID: &replacement})
				assertAppError(t, err, errorbank.KindBadRequest, purchase.MsgInvalidStatusOrder)
				return
			}

			f.store.EXPECT().Update(gomock.Any(), p.ID, gomock.Any()).Return(nil)
			got, err := f.svc.Update(context.Background(), p.ID, purchase.UpdateInput{SellerID: &replacement})
			require.NoError(t, err)
			assert.Equal(t, replacement, got.SellerID)
			assert.Equal(t, status, got.Status)
		})
	}
}

func TestService_UpdateTransitionTable(t *testing.T) {
	allowed := map[[2]entity.PurchaseStatus]bool{}
	for _, from := range entity.PurchaseStatuses() {
		for _, to := range from.AllowedNext() {
			allowed[[2]entity.PurchaseStatus{from, to}] = true
		}
	}

	for _, from := range entity.PurchaseStatuses() {
		for _, to := range entity.PurchaseStatuses() {
			t.Run(fmt.Sprintf("%s to %s", from, to), func(t *testing.T) {
				f := newFixture(t)
				seller := uuid.New()
				p := stored(seller, from)
				f.store.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil)
				f.sellers.EXPECT().Exists(gomock.Any(), seller).Return(true, nil)

				ok := allowed[[2]entity.PurchaseStatus{from, to}]
				if ok {
					f.store.EXPECT().Update(gomock.Any(), p.ID, gomock.Any()).Return(nil)
				}

				got, err := f.svc.Update(context.Background(), p.ID, purchase.UpdateInput{Status: intPtr(int(to))})
				if !ok {
					assertAppError(t, err, errorbank.KindBadRequest, purchase.MsgInvalidStatusOrder)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, to, got.Status)

				event := f.nextEvent(t)
				assert.Equal(t, purchase.EventStatusChanged, event.Type)
				assert.Equal(t, int(from), event.PreviousStatus)
				assert.Equal(t, int(to), event.Status)
			})
		}
	}
}

func TestService_UpdateStoreOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		kind     errorbank.Kind
	}{
		{name: "lost version guard", storeErr: repo.ErrNotModified, kind: errorbank.KindConflict},
		{name: "deleted meanwhile", storeErr: repo.ErrNotFound, kind: errorbank.KindNotFound},
		{name: "row count", storeErr: repo.ErrUnexpectedRowCount, kind: errorbank.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seller := uuid.New()
			p := stored(seller, entity.PurchaseStatusWaitingPayment)
			f.store.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil)
			f.sellers.EXPECT().Exists(gomock.Any(), seller).Return(true, nil)
			f.store.EXPECT().Update(gomock.Any(), p.ID, gomock.Any()).Return(tt.storeErr)

			_, err := f.svc.Update(context.Background(), p.ID, purchase.UpdateInput{Status: intPtr(2)})
			assertAppError(t, err, tt.kind, "")
		})
	}
}

func cachedPurchase(t *testing.T, f *fixture, id uuid.UUID) entity.Purchase {
	t.Helper()
	var got entity.Purchase
	require.NoError(t, cache.GetJSON(context.Background(), f.cache, "purchases:"+id.String(), &got))
	return got
}

func TestService_UpdateRefreshesCache(t *testing.T) {
	f := newFixture(t)
	seller := uuid.New()
	p := stored(seller, entity.PurchaseStatusWaitingPayment)

	f.store.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil).Times(2)
	f.sellers.EXPECT().Exists(gomock.Any(), seller).Return(true, nil)
	f.store.EXPECT().Update(gomock.Any(), p.ID, gomock.Any()).Return(nil)

	ctx := context.Background()
	_, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, p.ID, purchase.UpdateInput{Status: intPtr(2)})
	require.NoError(t, err)

	cached := cachedPurchase(t, f, p.ID)
	assert.Equal(t, entity.PurchaseStatusPaymentApproved, cached.Status)
	assert.Equal(t, p.Version+1, cached.Version)

	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseStatusPaymentApproved, got.Status)
}

func TestService_GetKeepsNewerCachedCopy(t *testing.T) {
	f := newFixture(t)
	seller := uuid.New()
	p := stored(seller, entity.PurchaseStatusWaitingPayment)
	ctx := context.Background()

	// The first read is still in flight when an update commits.
	var reads int
	f.store.EXPECT().GetByID(gomock.Any(), p.ID).DoAndReturn(func(ctx context.Context, id uuid.UUID) (*entity.Purchase, error) {
		reads++
		snapshot := *p
		if reads == 1 {
			_, err := f.svc.Update(ctx, id, purchase.UpdateInput{Status: intPtr(2)})
			require.NoError(t, err)
		}
		return &snapshot, nil
	}).Times(2)
	f.sellers.EXPECT().Exists(gomock.Any(), seller).Return(true, nil)
	f.store.EXPECT().Update(gomock.Any(), p.ID, gomock.Any()).Return(nil)

	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseStatusWaitingPayment, got.Status)

	cached := cachedPurchase(t, f, p.ID)
	assert.Equal(t, entity.PurchaseStatusPaymentApproved, cached.Status)
	assert.Equal(t, p.Version+1, cached.Version)
}

func TestService_GetAfterDelete(t *testing.T) {
	f := newFixture(t)
	p := stored(uuid.New(), entity.PurchaseStatusShipping)
	ctx := context.Background()

	f.store.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil).Times(1)
	f.store.EXPECT().Delete(gomock.Any(), p.ID).Return(nil)

	_, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, p.ID))

	_, err = f.svc.Get(ctx, p.ID)
	assertAppError(t, err, errorbank.KindNotFound, purchase.MsgPurchaseNotFound)
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	gomock.InOrder(
		f.store.EXPECT().Delete(gomock.Any(), id).Return(nil),
		f.store.EXPECT().Delete(gomock.Any(), id).Return(repo.ErrNotFound),
	)

	require.NoError(t, f.svc.Delete(context.Background(), id))
	assert.Equal(t, purchase.EventDeleted, f.nextEvent(t).Type)

	err := f.svc.Delete(context.Background(), id)
	assertAppError(t, err, errorbank.KindNotFound, purchase.MsgPurchaseNotFound)
}

func ptr[T any](v T) *T { return &v }
