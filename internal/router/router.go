package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cafevt/storefront/internal/config"
	"github.com/cafevt/storefront/internal/handler"
	"github.com/cafevt/storefront/internal/middleware"
	"github.com/cafevt/storefront/internal/model"
	"github.com/cafevt/storefront/internal/session"
)

// Handlers groups every handler needed to register the route table.
type Handlers struct {
	Auth      *handler.AuthHandler
	Products  *handler.ProductHandler
	Cart      *handler.CartHandler
	Purchases *handler.PurchaseHandler
	Reviews   *handler.ReviewHandler
	Dashboard *handler.DashboardHandler
	Loyalty   *handler.LoyaltyHandler
}

// Register wires the full route table onto the Echo instance. There is
// exactly one route table; the public catalog sits behind the redis
// response cache, auth and cart groups behind the rate limiter, and every
// account-bound group behind the session middleware.
func Register(e *echo.Echo, cfg config.Config, h Handlers, store *session.Store, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	auth := middleware.SessionAuth(store, cfg.SessionCookie)

	// Public catalog. Cached: responses never vary per user.
	pub := e.Group("/v1")
	pub.GET("/products", h.Products.List, cache)
	pub.GET("/products/:id", h.Products.Detail, cache)
	pub.GET("/products/:id/reviews", h.Products.ListReviews, cache)

	// Auth flows are unauthenticated by nature and rate limited against
	// credential stuffing.
	ag := e.Group("/v1/auth", limiter)
	ag.POST("/register", h.Auth.Register)
	ag.POST("/login", h.Auth.Login)
	ag.POST("/logout", h.Auth.Logout)

	// Everything below requires a live session.
	priv := e.Group("/v1", auth)
	priv.GET("/me", h.Auth.Me)

	cart := priv.Group("/cart", limiter)
	cart.GET("", h.Cart.Get)
	cart.POST("/add", h.Cart.Add)
	cart.POST("/update", h.Cart.Update)
	cart.POST("/remove", h.Cart.Remove)
	cart.POST("/checkout", h.Cart.DoCheckout)

	priv.GET("/purchases", h.Purchases.List)
	priv.GET("/purchases/:id", h.Purchases.Get)

	priv.POST("/products/:id/reviews", h.Reviews.Create)
	priv.POST("/reviews/:id/report", h.Reviews.Report)
	priv.DELETE("/reviews/:id", h.Reviews.Delete)

	priv.GET("/loyalty", h.Loyalty.Balance)
	priv.GET("/loyalty/history", h.Loyalty.History)

	// Moderation dashboard, moderators only.
	dash := priv.Group("/dashboard", middleware.RequireRole(model.RoleModerator))
	dash.GET("/reviews", h.Dashboard.ListReviews)
	dash.POST("/moderate-review", h.Dashboard.Moderate)
}
