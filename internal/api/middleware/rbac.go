package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/librarium/loan-service/internal/core/domain"
)

// RBAC enforces coarse role-based access control on a route. Finer checks
// (ownership, the loan transition matrix) live in the policy package and are
// applied by the services.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[string(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
