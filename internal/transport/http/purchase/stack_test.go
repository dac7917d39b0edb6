package purchase_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/auth"
	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database/databasetest"
	"github.com/Additional-Code/storefront/internal/dto"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/messaging"
	repopurchase "github.com/Additional-Code/storefront/internal/repository/purchase"
	reposeller "github.com/Additional-Code/storefront/internal/repository/seller"
	httpserver "github.com/Additional-Code/storefront/internal/server/http"
	service "github.com/Additional-Code/storefront/internal/service/purchase"
	transport "github.com/Additional-Code/storefront/internal/transport/http/purchase"
)

// stack is a purchase API served from an in-memory sqlite database.
type stack struct {
	echo    *echo.Echo
	sellers *reposeller.Repository
	tokens  *auth.TokenService
	bus     *messaging.MemoryClient
}

type envelope struct {
	Success bool                 `json:"success"`
	Data    dto.PurchaseResponse `json:"data"`
	Error   struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func newStack(t testing.TB, logger *zap.Logger) *stack {
	t.Helper()
	conns := databasetest.NewSQLite(t)

	cfg := config.Config{
		HTTP:  config.HTTP{CORSOrigins: []string{"*"}},
		Auth:  config.Auth{Issuer: "storefront", Audience: "storefront-api", TokenTTL: time.Hour},
		Cache: config.Cache{DefaultTTL: time.Minute},
	}
	cfg.Messaging.Enabled = true

	tokens, err := auth.NewTokenService(cfg, logger)
	require.NoError(t, err)

	sellers := reposeller.NewRepository(conns)
	bus := messaging.NewMemoryClient("purchases.events")
	svc, err := service.NewService(service.Params{
		Store:     repopurchase.NewRepository(conns),
		Sellers:   sellers,
		Cache:     cache.NewMemoryStore(time.Minute),
		Config:    cfg,
		Logger:    logger,
		Publisher: bus,
	})
	require.NoError(t, err)

	e := httpserver.NewEcho(cfg, nil, logger)
	transport.Register(e, transport.NewHandler(svc), tokens)

	return &stack{echo: e, sellers: sellers, tokens: tokens, bus: bus}
}

func newTestStack(t *testing.T) *stack {
	return newStack(t, zaptest.NewLogger(t))
}

// seller registers a seller and returns its id with a bearer token.
func (s *stack) seller(t testing.TB, cpf string) (uuid.UUID, string) {
	t.Helper()
	seller := &entity.Seller{
		Cpf:       cpf,
		Name:      "Seller " + cpf,
		Email:     cpf + "@example.com",
		Telephone: "+55(11)9" + cpf[3:7] + "-" + cpf[7:11],
	}
	require.NoError(t, s.sellers.Create(t.Context(), seller))
	token, _, err := s.tokens.Issue(seller.ID)
	require.NoError(t, err)
	return seller.ID, token
}

func (s *stack) do(t testing.TB, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get(echo.HeaderContentType) != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec.Code, env
}

func statusBody(status entity.PurchaseStatus) map[string]any {
	return map[string]any{"purchaseStatusId": int(status)}
}
