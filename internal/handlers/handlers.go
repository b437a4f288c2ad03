package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/cart"
	"github.com/campus-tuckshop/tuckshop-service/internal/clients"
	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/repository"
	"github.com/campus-tuckshop/tuckshop-service/internal/service"
)

// Handlers holds all HTTP handlers for the tuckshop service.
type Handlers struct {
	catalog  *service.CatalogService
	checkout *service.CheckoutService
	accounts *service.AccountService
	cart     *cart.Manager
	identity clients.IdentityClient
	config   *config.Config
	logger   *logrus.Entry
}

func NewHandlers(
	catalog *service.CatalogService,
	checkout *service.CheckoutService,
	accounts *service.AccountService,
	cartManager *cart.Manager,
	identity clients.IdentityClient,
	cfg *config.Config,
	logger *logrus.Logger,
) *Handlers {
	return &Handlers{
		catalog:  catalog,
		checkout: checkout,
		accounts: accounts,
		cart:     cartManager,
		identity: identity,
		config:   cfg,
		logger:   logger.WithField("component", "handlers"),
	}
}

// handleError maps the settlement engine's error taxonomy onto HTTP. Business
// refusals are 4xx with a machine-readable code; anything unexpected is a
// plain 500 so internals never leak.
func handleError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
		return
	}

	var notFoundErr *service.ItemNotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   notFoundErr.Error(),
			"code":    "item_not_found",
			"item_id": notFoundErr.ItemID,
		})
		return
	}

	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     stockErr.Error(),
			"code":      "insufficient_stock",
			"item_id":   stockErr.ItemID,
			"available": stockErr.Available,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInsufficientBalance):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient balance", "code": "insufficient_balance"})
	case errors.Is(err, service.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found", "code": "account_not_found"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "please retry, the shop is busy", "code": "conflict"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, clients.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
