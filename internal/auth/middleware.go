package auth

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/storefront/internal/presentation/http/response"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

const (
	authHeaderKey  = "Authorization"
	authType       = "Bearer"
	sellerIDCtxKey = "auth.seller_id"
)

// RequireBearer rejects requests without a valid bearer token and stores the
// token's seller id on the echo context.
func RequireBearer(tokens *TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(authHeaderKey)
			if header == "" {
				return unauthorized(c, "missing authorization header")
			}

			words := strings.Fields(header)
			if len(words) != 2 {
				return unauthorized(c, "invalid authorization header")
			}
			if !strings.EqualFold(words[0], authType) {
				return unauthorized(c, "unsupported authorization type")
			}

			sellerID, err := tokens.Verify(words[1])
			if err != nil {
				return response.New(c).WithError(errorbank.Unauthorized("invalid token", errorbank.WithCause(err))).Build()
			}

			c.Set(sellerIDCtxKey, sellerID)
			return next(c)
		}
	}
}

// SellerIDFromContext returns the seller id set by RequireBearer.
func SellerIDFromContext(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(sellerIDCtxKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func unauthorized(c echo.Context, message string) error {
	return response.New(c).WithError(errorbank.Unauthorized(message)).Build()
}
