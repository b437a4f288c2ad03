package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/handlers"
)

// Server wires the router and owns the http.Server lifecycle.
type Server struct {
	config *config.Config
	router *gin.Engine
	http   *http.Server
}

func New(h *handlers.Handlers, cfg *config.Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Metrics())

	s := &Server{
		config: cfg,
		router: router,
	}
	s.setupRoutes(h)

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes(h *handlers.Handlers) {
	s.router.GET("/health", h.Health)
	s.router.GET("/ready", h.Ready)
	s.router.GET("/version", h.Version)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := s.router.Group("/api/v1/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/signin", h.SignIn)
	}

	v1 := s.router.Group("/api/v1")
	v1.Use(h.AuthRequired())
	{
		v1.GET("/items", h.ListItems)
		v1.GET("/items/:id", h.GetItem)

		v1.GET("/cart", h.GetCart)
		v1.DELETE("/cart", h.ClearCart)
		v1.POST("/cart/items", h.AddToCart)
		v1.PUT("/cart/items/:id", h.SetCartQuantity)
		v1.DELETE("/cart/items/:id", h.RemoveFromCart)

		v1.POST("/checkout", h.Checkout)
		v1.GET("/orders", h.ListOrders)
		v1.GET("/orders/:id", h.GetOrder)
		v1.GET("/account", h.GetBalance)

		admin := v1.Group("/admin")
		admin.Use(h.AdminRequired())
		{
			admin.POST("/items", h.AddItem)
			admin.POST("/items/:id/restock", h.RestockItem)
		}
	}
}

// Router exposes the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
