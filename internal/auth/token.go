package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/config"
)

const sellerClaim = "sellerId"

// ErrInvalidToken is returned for tokens that fail decryption, rules, or claims.
var ErrInvalidToken = errors.New("invalid token")

// Module provides the token service to Fx.
var Module = fx.Provide(NewTokenService)

// TokenService issues and verifies PASETO v4 local bearer tokens.
type TokenService struct {
	key      paseto.V4SymmetricKey
	parser   paseto.Parser
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService builds a TokenService from the auth configuration. An empty
// key yields a random one.
func NewTokenService(cfg config.Config, logger *zap.Logger) (*TokenService, error) {
	var key paseto.V4SymmetricKey
	if cfg.Auth.TokenKey == "" {
		if logger != nil {
			logger.Warn("AUTH_TOKEN_KEY not set; generated an ephemeral key, tokens will not survive restarts")
		}
		key = paseto.NewV4SymmetricKey()
	} else {
		parsed, err := paseto.V4SymmetricKeyFromHex(cfg.Auth.TokenKey)
		if err != nil {
			return nil, fmt.Errorf("parse token key: %w", err)
		}
		key = parsed
	}
	return newTokenService(key, cfg.Auth), nil
}

func newTokenService(key paseto.V4SymmetricKey, cfg config.Auth) *TokenService {
	parser := paseto.NewParser()
	if cfg.Issuer != "" {
		parser.AddRule(paseto.IssuedBy(cfg.Issuer))
	}
	if cfg.Audience != "" {
		parser.AddRule(paseto.ForAudience(cfg.Audience))
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &TokenService{
		key:      key,
		parser:   parser,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue signs a token carrying sellerID and returns it with its expiry.
func (s *TokenService) Issue(sellerID uuid.UUID) (string, time.Time, error) {
	if sellerID == uuid.Nil {
		return "", time.Time{}, errors.New("seller id is required")
	}
	now := s.now()
	expires := now.Add(s.ttl)

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)
	if s.issuer != "" {
		token.SetIssuer(s.issuer)
	}
	if s.audience != "" {
		token.SetAudience(s.audience)
	}
	token.SetSubject(sellerID.String())
	token.SetString(sellerClaim, sellerID.String())

	return token.V4Encrypt(s.key, nil), expires, nil
}

// Verify checks the token and returns the seller it was issued for.
func (s *TokenService) Verify(raw string) (uuid.UUID, error) {
	token, err := s.parser.ParseV4Local(s.key, raw, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claim, err := token.GetString(sellerClaim)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sellerID, err := uuid.Parse(claim)
	if err != nil || sellerID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: malformed %s claim", ErrInvalidToken, sellerClaim)
	}
	return sellerID, nil
}
