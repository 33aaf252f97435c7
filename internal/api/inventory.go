package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fridgefriend/internal/inventory"
	"fridgefriend/internal/models"
)

const expiryLayout = "2006-01-02"

type addItemRequest struct {
	Name            string  `json:"product_name" binding:"required"`
	Quantity        float64 `json:"quantity" binding:"gte=0"`
	Unit            string  `json:"unit"`
	Category        string  `json:"category"`
	StorageLocation string  `json:"storage_location"`
	ExpiryDate      string  `json:"expiry_date" binding:"required"`
}

func (h *Handler) listInventory(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	items, err := h.inventory.FetchInventory(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, inventory.ErrAuth) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		h.log.Error("fetch inventory failed", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load inventory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"demo_mode": h.inventory.DemoMode(),
	})
}

func (h *Handler) addInventoryItem(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	expiry, err := time.Parse(expiryLayout, req.ExpiryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiry_date must be YYYY-MM-DD"})
		return
	}
	item, err := h.inventory.AddItem(c.Request.Context(), userID, models.InventoryItem{
		Name:            req.Name,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Category:        req.Category,
		StorageLocation: req.StorageLocation,
		ExpiryDate:      expiry,
	})
	if err != nil {
		h.writeInventoryError(c, userID, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) deleteInventoryItem(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil || itemID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	if err := h.inventory.DeleteItem(c.Request.Context(), userID, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		h.writeInventoryError(c, userID, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeInventoryError(c *gin.Context, userID int64, err error) {
	switch {
	case errors.Is(err, inventory.ErrDemoReadOnly):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrInvalidItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrAuth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
	default:
		h.log.Error("inventory write failed", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update inventory"})
	}
}
