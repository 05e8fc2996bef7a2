package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/example/storefront/api/docs"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Pinger is a backend reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the domain services the HTTP API exposes.
type Services struct {
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Identity *service.IdentityService
	Contact  *service.ContactService
	Health   map[string]Pinger
}

// Gateway is the public HTTP API.
type Gateway struct {
	config   *config.Config
	services Services
	logger   *zap.Logger
	router   *gin.Engine
	server   *http.Server
}

// NewGateway creates a new API gateway
func NewGateway(cfg *config.Config, logger *zap.Logger, services Services) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config:   cfg,
		services: services,
		logger:   logger,
		router:   router,
	}
}

// SetupRoutes registers all API routes
func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.health)

	v1 := g.router.Group("/api/v1")
	v1.GET("/health", g.health)
	{
		products := v1.Group("/products")
		{
			products.GET("", g.listProducts)
			products.GET("/featured", g.featuredProducts)
			products.GET("/:id", g.getProduct)
		}

		v1.POST("/messages", g.createMessage)

		session := v1.Group("", sessionMiddleware(&g.config.Session))

		cart := session.Group("/cart")
		{
			cart.GET("", g.getCart)
			cart.DELETE("", g.clearCart)
			cart.POST("/items", g.addCartItem)
			cart.PUT("/items/:id", g.updateCartItem)
			cart.DELETE("/items/:id", g.removeCartItem)
		}

		checkout := session.Group("/checkout")
		{
			checkout.GET("/prefill", g.checkoutPrefill)
			checkout.POST("/payment-intent", g.createPaymentIntent)
			checkout.POST("", g.placeOrder)
			checkout.GET("/last", g.lastCheckout)
		}

		auth := session.Group("/auth")
		{
			auth.POST("/signup", g.signup)
			auth.POST("/login", g.login)
			auth.POST("/logout", g.logout)
			auth.GET("/me", g.me)
		}
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler returns the router, for tests and embedding.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Start serves until Shutdown is called.
func (g *Gateway) Start() error {
	addr := g.config.Server.Addr()
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

// health godoc
// @Summary Liveness and backend reachability
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (g *Gateway) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	code := http.StatusOK
	for name, p := range g.services.Health {
		if err := p.Ping(ctx); err != nil {
			g.logger.Warn("Health check failed", zap.String("backend", name), zap.Error(err))
			checks[name] = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	status := "ok"
	if code != http.StatusOK {
		status = "degraded"
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
