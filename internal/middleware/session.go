package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cafevt/storefront/internal/session"
)

// SessionAuth returns an Echo middleware that resolves the session cookie
// to an authenticated identity and injects it into the request context.
// Handlers behind it read the identity via c.Get("user_id"),
// c.Get("email") and c.Get("role"). A missing cookie or a session that has
// idled out yields 401. A successful lookup slides the idle window forward
// (the store renews the redis TTL on Get).
func SessionAuth(store *session.Store, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			data, err := store.Get(c.Request().Context(), cookie.Value)
			if err != nil {
				if err == session.ErrNotFound {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed"})
			}
			c.Set("user_id", data.UserID)
			c.Set("email", data.Email)
			c.Set("role", data.Role)
			c.Set("session_token", cookie.Value)
			return next(c)
		}
	}
}
