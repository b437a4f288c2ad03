package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-tuckshop/tuckshop-service/internal/models"
	"github.com/campus-tuckshop/tuckshop-service/internal/service"
)

// GetCart handles GET /api/v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	lines, err := h.cart.Snapshot(c.Request.Context(), userEmail(c))
	if err != nil {
		handleError(c, err)
		return
	}
	respondCart(c, lines)
}

// AddToCart handles POST /api/v1/cart/items. The line is hydrated from the
// live catalog so the cart carries a price and stock snapshot for display and
// best-effort clamping.
func (h *Handlers) AddToCart(c *gin.Context) {
	var req models.CartAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := service.ValidateCartAddRequest(&req); err != nil {
		handleError(c, err)
		return
	}

	item, err := h.catalog.GetItem(c.Request.Context(), req.ItemID)
	if err != nil {
		handleError(c, err)
		return
	}

	lines, err := h.cart.Add(c.Request.Context(), userEmail(c), models.CartLine{
		ItemID:        item.ID,
		Name:          item.Name,
		UnitPrice:     item.Price,
		Quantity:      req.Quantity,
		StockSnapshot: item.Stock,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	respondCart(c, lines)
}

// SetCartQuantity handles PUT /api/v1/cart/items/:id
func (h *Handlers) SetCartQuantity(c *gin.Context) {
	var req models.CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	lines, err := h.cart.SetQuantity(c.Request.Context(), userEmail(c), c.Param("id"), req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}
	respondCart(c, lines)
}

// RemoveFromCart handles DELETE /api/v1/cart/items/:id
func (h *Handlers) RemoveFromCart(c *gin.Context) {
	lines, err := h.cart.Remove(c.Request.Context(), userEmail(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	respondCart(c, lines)
}

// ClearCart handles DELETE /api/v1/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), userEmail(c)); err != nil {
		handleError(c, err)
		return
	}
	respondCart(c, []models.CartLine{})
}

func respondCart(c *gin.Context, lines []models.CartLine) {
	c.JSON(http.StatusOK, gin.H{
		"lines": lines,
		"total": models.CartTotal(lines),
	})
}
