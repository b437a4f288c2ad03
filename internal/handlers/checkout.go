package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Checkout handles POST /api/v1/checkout. It drains the caller's persisted
// cart through the settlement engine. The cart is cleared only after a
// successful settlement; on any refusal it is left untouched so the buyer can
// correct and retry.
func (h *Handlers) Checkout(c *gin.Context) {
	owner := userEmail(c)

	lines, err := h.cart.Snapshot(c.Request.Context(), owner)
	if err != nil {
		handleError(c, err)
		return
	}

	order, err := h.checkout.PlaceOrder(c.Request.Context(), owner, lines)
	if err != nil {
		handleError(c, err)
		return
	}

	if err := h.cart.Clear(c.Request.Context(), owner); err != nil {
		// The order is already settled; a stale cart is an inconvenience,
		// not a consistency problem.
		h.logger.WithFields(logrus.Fields{
			"user_email": owner,
			"order_id":   order.ID,
			"error":      err.Error(),
		}).Error("Failed to clear cart after checkout")
	}

	c.JSON(http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	orders, err := h.checkout.ListUserOrders(c.Request.Context(), userEmail(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.checkout.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	// Orders are private to their owner.
	if order.UserEmail != userEmail(c) && !c.GetBool(ctxIsAdmin) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetBalance handles GET /api/v1/account
func (h *Handlers) GetBalance(c *gin.Context) {
	account, err := h.accounts.GetAccount(c.Request.Context(), userEmail(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
