package httpserver

import (
	"context"

	"pranzo-storefront/internal/domain"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductService is what the product routes need from the product service.
type ProductService interface {
	Snapshot(ctx context.Context) (domain.StoreSnapshot, error)
	Query(ctx context.Context, f domain.Filter, admin bool) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) (*domain.Product, error)
	ReplaceAll(ctx context.Context, products []domain.Product) error
}

// OrderService is what the order routes need from the order service.
type OrderService interface {
	List(ctx context.Context) ([]domain.Order, error)
	Submit(ctx context.Context, o domain.Order) (*domain.Order, error)
	Delete(ctx context.Context, id string) (*domain.Order, error)
	Clear(ctx context.Context) (int, error)
}

// Deps bundles the services the router dispatches to.
type Deps struct {
	Products ProductService
	Orders   OrderService
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, ready Pinger, deps Deps, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(requestID(), requestLogger(logger), gin.Recovery(), corsMiddleware(origins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(ready))

	api := router.Group("/api")
	h := &handlers{deps: deps, logger: logger}
	api.GET("/store", h.getStore)
	api.POST("/save-store", h.saveStore)

	api.GET("/facets", h.getFacets)
	api.GET("/products", h.listProducts)
	api.POST("/products", h.createProduct)
	api.GET("/products/:id", h.getProduct)
	api.PUT("/products/:id", h.updateProduct)
	api.DELETE("/products/:id", h.deleteProduct)

	api.GET("/orders", h.listOrders)
	api.POST("/orders", h.createOrder)
	api.DELETE("/orders", h.clearOrders)
	api.DELETE("/orders/:id", h.deleteOrder)

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
