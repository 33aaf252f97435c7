package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fridgefriend/internal/service/recipe"
	"fridgefriend/internal/worker"
)

const (
	recipeFailedMessage = "Failed to generate recipe. Please try again."
	chatFailedMessage   = "Failed to get a reply. Please try again."
	busyMessage         = "server is busy, please retry"
)

type recipeRequest struct {
	Query string `json:"query"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) generateRecipe(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx := worker.WithUser(c.Request.Context(), userID)
	result, err := h.recipes.Run(ctx, userID, req.Query)
	if err != nil {
		switch {
		case errors.Is(err, recipe.ErrEmptyQuery):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, worker.ErrDispatcherBusy):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": busyMessage})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": recipeFailedMessage})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) latestRecipe(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	result, found := h.recipes.Latest(c.Request.Context(), userID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recipe generated yet"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) chatMessage(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx := worker.WithUser(c.Request.Context(), userID)
	reply, err := h.chat.Chat(ctx, userID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, recipe.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, worker.ErrDispatcherBusy):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": busyMessage})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": chatFailedMessage})
		}
		return
	}
	c.JSON(http.StatusOK, reply)
}
