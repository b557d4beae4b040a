package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
)

const callerKey = "caller"

// Identifier resolves the caller of every request from the access token cookie,
// falling back to an anonymous session cookie it issues on first contact.
type Identifier struct {
	JWTSecret     []byte
	SessionCookie string
	CookieSecure  bool
	SessionTTL    time.Duration
}

func NewIdentifier(secret []byte, sessionCookie string, secure bool) *Identifier {
	return &Identifier{
		JWTSecret:     secret,
		SessionCookie: sessionCookie,
		CookieSecure:  secure,
		SessionTTL:    14 * 24 * time.Hour,
	}
}

func (m *Identifier) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var caller identity.Caller

		if ck, err := c.Cookie(m.SessionCookie); err == nil && ck.Value != "" {
			caller.Session = ck.Value
		}

		if ck, err := c.Cookie(tokens.AccessCookie); err == nil && ck.Value != "" {
			claims, err := tokens.AccessClaimsFromToken(ck.Value, m.JWTSecret)
			if err == nil {
				if id, idErr := claims.UserID(); idErr == nil {
					caller.Identity = identity.User(id)
					caller.Role = claims.Role
					caller.Name = claims.Name
				}
			} else {
				logging.FromContext(c.Request().Context()).Debug("access_token_ignored", "error", err)
			}
		}

		if caller.Identity.IsZero() {
			if caller.Session == "" {
				caller.Session = uuid.NewString()
				c.SetCookie(tokens.CreateCookie(m.SessionCookie, caller.Session, "/", time.Now().Add(m.SessionTTL), m.CookieSecure))
			}
			caller.Identity = identity.Anonymous(caller.Session)
		}

		setCaller(c, caller)
		return next(c)
	}
}

func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !CallerFrom(c).Identity.IsUser() {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}

func RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := CallerFrom(c)
		if !caller.Identity.IsUser() {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		if !caller.IsStaff() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

func setCaller(c echo.Context, caller identity.Caller) {
	c.Set(callerKey, caller)
	c.SetRequest(c.Request().WithContext(identity.IntoContext(c.Request().Context(), caller)))
}

// SetCaller is used by tests that call handlers without the middleware chain.
func SetCaller(c echo.Context, caller identity.Caller) { setCaller(c, caller) }

func CallerFrom(c echo.Context) identity.Caller {
	if v, ok := c.Get(callerKey).(identity.Caller); ok {
		return v
	}
	if v, ok := identity.FromContext(c.Request().Context()); ok {
		return v
	}
	return identity.Caller{}
}
