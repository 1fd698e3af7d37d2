package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/librarium/loan-service/internal/core/domain"
)

// ctxActor extracts the authenticated actor injected by the Auth middleware
// and performs a fast-fail check before any service call: both claims must be
// present, which proves the middleware ran.
func ctxActor(c echo.Context) (domain.Actor, error) {
	id, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if id == "" || role == "" {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return domain.Actor{ID: id, Role: domain.Role(role)}, nil
}
