package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/srochno/order-exchange/internal/api/handler"
	"github.com/srochno/order-exchange/internal/api/middleware"
	"github.com/srochno/order-exchange/internal/core/ports"
)

// Deps carries the constructed services the router wires to routes, plus
// the raw connections the readiness probe checks.
type Deps struct {
	Auth   ports.AuthService
	Orders ports.OrderService
	Takes  ports.TakeService
	Ledger ports.Ledger

	Mongo *mongo.Database
	Redis *redis.Client

	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	orderHandler := handler.NewOrderHandler(deps.Orders, deps.Takes)
	balanceHandler := handler.NewBalanceHandler(deps.Ledger)
	authMiddleware := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Authenticated API ---
	v1 := e.Group("/v1", authMiddleware)

	v1.GET("/profile", authHandler.Profile)

	v1.POST("/orders", orderHandler.Create)
	v1.GET("/orders", orderHandler.List)
	v1.GET("/orders/:order_id", orderHandler.Get)
	v1.PATCH("/orders/:order_id", orderHandler.Update)
	v1.DELETE("/orders/:order_id", orderHandler.Delete)
	v1.POST("/orders/:order_id/take", orderHandler.Take)
	v1.POST("/orders/:order_id/respond", orderHandler.Respond)
	v1.POST("/orders/:order_id/complete", orderHandler.Complete)
	v1.POST("/orders/:order_id/close", orderHandler.Close)

	v1.GET("/balance", balanceHandler.Get)
	v1.POST("/balance/recharge", balanceHandler.Recharge)
	v1.GET("/balance/history", balanceHandler.History)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
