package main // Entry point package

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/cafevt/storefront/internal/config"
	"github.com/cafevt/storefront/internal/database"
	"github.com/cafevt/storefront/internal/handler"
	"github.com/cafevt/storefront/internal/mail"
	"github.com/cafevt/storefront/internal/queue"
	"github.com/cafevt/storefront/internal/repository"
	"github.com/cafevt/storefront/internal/router"
	"github.com/cafevt/storefront/internal/service"
	"github.com/cafevt/storefront/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment

	cfg := config.Load()
	initLogger(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}

	// Sessions require Redis; unlike the cache and rate limiter there is
	// no degraded mode without it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logrus.Fatal("redis connection failed; sessions cannot be served")
	}
	store := session.NewStore(rdb, time.Duration(cfg.SessionIdleMin)*time.Minute)

	// Repositories.
	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	carts := repository.NewCartRepo(db)
	purchases := repository.NewPurchaseRepo(db)
	reviews := repository.NewReviewRepo(db)
	loyaltyLedger := repository.NewLoyaltyRepo(db)

	// Services. The whole graph is wired here, at the composition root,
	// so a wiring mistake is a compile error rather than a runtime one.
	authSvc := service.NewAuthService(users, store, cfg.BcryptCost)
	cartSvc := service.NewCartService(carts, products)
	checkoutSvc := service.NewCheckoutService(db, carts, products, purchases)
	reviewSvc := service.NewReviewService(reviews, products)
	loyaltySvc := service.NewLoyaltyService(loyaltyLedger, int64(cfg.LoyaltyRate))

	// Background consumer: loyalty credits + confirmation mail.
	mailer := mail.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromEmail)
	go queue.StartPurchaseConsumer(loyaltySvc, mailer)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, authSvc),
		Products:  handler.NewProductHandler(products, reviews),
		Cart:      handler.NewCartHandler(cartSvc, checkoutSvc, users),
		Purchases: handler.NewPurchaseHandler(purchases),
		Reviews:   handler.NewReviewHandler(reviewSvc),
		Dashboard: handler.NewDashboardHandler(reviewSvc),
		Loyalty:   handler.NewLoyaltyHandler(loyaltySvc),
	}, store, rdb)

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

// initLogger configures logrus: structured JSON at info level in prod,
// human-readable debug output everywhere else.
func initLogger(env string) {
	logrus.SetOutput(os.Stdout)
	if env == "prod" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.DebugLevel)
	}
}
