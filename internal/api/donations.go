package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fridgefriend/internal/service/donation"
)

type donationRequest struct {
	CommunityID int64   `json:"community_id" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	QuantityKg  float64 `json:"quantity_kg" binding:"required"`
	Location    string  `json:"location"`
}

func (h *Handler) listCommunities(c *gin.Context) {
	communities, err := h.donations.ListCommunities(c.Request.Context())
	if err != nil {
		h.log.Error("list communities failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load communities"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"communities": communities})
}

func (h *Handler) createCommunity(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	community, err := h.donations.CreateCommunity(c.Request.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, donation.ErrInvalidCommunity):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, donation.ErrCommunityExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.log.Error("create community failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create community"})
		}
		return
	}
	c.JSON(http.StatusCreated, community)
}

func (h *Handler) createDonation(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req donationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	d, err := h.donations.Donate(c.Request.Context(), userID, donation.Request{
		CommunityID: req.CommunityID,
		Category:    req.Category,
		QuantityKg:  req.QuantityKg,
		Location:    req.Location,
	})
	if err != nil {
		switch {
		case errors.Is(err, donation.ErrCommunityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, donation.ErrInvalidCategory),
			errors.Is(err, donation.ErrInvalidQuantity),
			errors.Is(err, donation.ErrInvalidCommunity),
			errors.Is(err, donation.ErrUnknownLocation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("record donation failed", zap.Int64("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record donation"})
		}
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) listLocations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"locations":  donation.Locations(),
		"categories": donation.Categories,
	})
}
