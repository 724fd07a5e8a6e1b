package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const partnerContextKey = "partner_context"

// Middleware validates the Bearer token on every request and stores the
// PartnerContext on the echo context. Expired sessions get a distinct
// "session_expired" code so clients redirect to re-login.
func Middleware(signer *Signer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
			}
			pc, err := signer.Parse(parts[1])
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
						"code":    "session_expired",
						"message": "session expired, please log in again",
					})
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(partnerContextKey, pc)
			return next(c)
		}
	}
}

// FromContext returns the authenticated partner, or false when the request
// was not authenticated.
func FromContext(c echo.Context) (PartnerContext, bool) {
	pc, ok := c.Get(partnerContextKey).(PartnerContext)
	return pc, ok
}

// WithPartner stores a partner context for tests.
func WithPartner(c echo.Context, pc PartnerContext) {
	c.Set(partnerContextKey, pc)
}

// RequireServiceType returns middleware admitting only partners of the given
// service types.
func RequireServiceType(types ...ServiceType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			pc, ok := FromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			for _, t := range types {
				if pc.ServiceType == t {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "not available for this service type")
		}
	}
}
