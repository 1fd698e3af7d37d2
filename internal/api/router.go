package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	"github.com/librarium/loan-service/internal/api/handler"
	"github.com/librarium/loan-service/internal/api/middleware"
	"github.com/librarium/loan-service/internal/core/domain"
)

// Handlers groups the HTTP handlers wired by the router.
type Handlers struct {
	Auth     *handler.AuthHandler
	Loans    *handler.LoanHandler
	Books    *handler.BookHandler
	Branches *handler.BranchHandler
	Users    *handler.UserHandler
	Health   *handler.HealthHandler
}

// NewRouter builds the echo engine: global middleware, the error handler, and
// every route group with its auth and role gates.
func NewRouter(h Handlers, jwtSecret string, revoked middleware.RevocationChecker, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echoprometheus.NewMiddleware("library"))

	e.GET("/health", h.Health.Live)
	e.GET("/health/live", h.Health.Live)
	e.GET("/health/ready", h.Health.Ready)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	v1 := e.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout, middleware.Auth(jwtSecret, revoked))

	authed := middleware.Auth(jwtSecret, revoked)
	staff := middleware.RBAC(domain.RoleLibrarian, domain.RoleAdmin)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// Loans: every authenticated role may enter; ownership and the
	// per-transition role matrix are enforced by the policy layer.
	loans := v1.Group("/loans", authed)
	loans.POST("", h.Loans.Create)
	loans.GET("", h.Loans.List)
	loans.GET("/my-history", h.Loans.MyHistory)
	loans.GET("/:id", h.Loans.Get)
	loans.PATCH("/:id/status", h.Loans.UpdateStatus)

	// Catalog: reads are open to any authenticated user, writes are staff,
	// deletes are admin.
	books := v1.Group("/books", authed)
	books.GET("", h.Books.List)
	books.GET("/:id", h.Books.Get)
	books.POST("", h.Books.Create, staff)
	books.PUT("/:id", h.Books.Update, staff)
	books.PATCH("/:id/copies", h.Books.AdjustCopies, staff)
	books.DELETE("/:id", h.Books.Delete, adminOnly)

	branches := v1.Group("/branches", authed)
	branches.GET("", h.Branches.List)
	branches.GET("/:id", h.Branches.Get)
	branches.POST("", h.Branches.Create, staff)
	branches.PUT("/:id", h.Branches.Update, staff)
	branches.DELETE("/:id", h.Branches.Delete, adminOnly)

	users := v1.Group("/users", authed, adminOnly)
	users.POST("", h.Users.Create)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	return e
}
