package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-tuckshop/tuckshop-service/internal/models"
)

// ListItems handles GET /api/v1/items?category=
func (h *Handlers) ListItems(c *gin.Context) {
	category := models.Category(c.Query("category"))

	items, err := h.catalog.ListItems(c.Request.Context(), category)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetItem handles GET /api/v1/items/:id
func (h *Handlers) GetItem(c *gin.Context) {
	item, err := h.catalog.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// AddItem handles POST /api/v1/admin/items
func (h *Handlers) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item, err := h.catalog.AddItem(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// RestockItem handles POST /api/v1/admin/items/:id/restock
func (h *Handlers) RestockItem(c *gin.Context) {
	var req models.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item, err := h.catalog.Restock(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}
