package handler

import (
	"errors"

	"github.com/labstack/echo/v4"
)

var errNoIdentity = errors.New("no authenticated user in context")

// getUserID extracts the authenticated user's id placed in the context by
// the session middleware. Handlers behind SessionAuth can assume it is
// present; the error path exists for misconfigured route groups.
func getUserID(c echo.Context) (uint64, error) {
	if v, ok := c.Get("user_id").(uint64); ok && v != 0 {
		return v, nil
	}
	return 0, errNoIdentity
}
