package router

import (
	"github.com/gin-gonic/gin"
	"github.com/retreat/backend/internal/infrastructure/logger"
	"github.com/retreat/backend/internal/interfaces/http/handler"
	"github.com/retreat/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineConfig holds the middleware settings of the HTTP engine
type EngineConfig struct {
	Mode           string // gin mode: debug, release, test
	ServiceName    string
	TracingEnabled bool
	MaxBodySize    int64
	TrustedProxies []string
}

// Handlers bundles every handler served by the engine
type Handlers struct {
	Ledger   *handler.LedgerHandler
	Discount *handler.DiscountHandler
	Import   *handler.ImportHandler
	System   *handler.SystemHandler
}

// NewEngine builds the gin engine with the middleware chain and every route registered.
// Order: request id, recovery, tracing, span attributes, request logging, body limit.
func NewEngine(cfg EngineConfig, log *zap.Logger, h Handlers) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.TracingEnabled}),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		middleware.BodyLimit(cfg.MaxBodySize),
	)

	engine.GET("/health", h.System.Health)

	NewRouter(engine).
		Register(LedgerRoutes(h.Ledger, h.Discount, h.Import)).
		Setup()
	return engine, nil
}
