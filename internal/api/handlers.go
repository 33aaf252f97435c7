package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fridgefriend/internal/auth"
	"fridgefriend/internal/models"
	"fridgefriend/internal/service/donation"
)

// InventoryService reads and edits a user's products.
type InventoryService interface {
	FetchInventory(ctx context.Context, userID int64) ([]models.InventoryItem, error)
	AddItem(ctx context.Context, userID int64, item models.InventoryItem) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, userID, itemID int64) error
	DemoMode() bool
}

type RecipeService interface {
	Run(ctx context.Context, userID int64, query string) (*models.RecipeResult, error)
	Latest(ctx context.Context, userID int64) (*models.RecipeResult, bool)
}

type ChatService interface {
	Chat(ctx context.Context, userID int64, message string) (*models.ChatReply, error)
}

type DonationService interface {
	ListCommunities(ctx context.Context) ([]models.Community, error)
	CreateCommunity(ctx context.Context, name string) (*models.Community, error)
	Donate(ctx context.Context, userID int64, req donation.Request) (*models.Donation, error)
}

// JobCanceler drops a user's queued generation calls.
type JobCanceler interface {
	CancelUser(userID int64)
}

// Options collects the services a Handler exposes. Jobs may be nil.
type Options struct {
	Auth          *auth.Service
	Inventory     InventoryService
	Recipes       RecipeService
	Chat          ChatService
	Donations     DonationService
	Jobs          JobCanceler
	RatePerMinute int
	Logger        *zap.Logger
}

// Handler wires HTTP routes to the fridge services.
type Handler struct {
	auth      *auth.Service
	inventory InventoryService
	recipes   RecipeService
	chat      ChatService
	donations DonationService
	jobs      JobCanceler
	limiter   *userLimiter
	log       *zap.Logger
}

func NewHandler(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		auth:      opts.Auth,
		inventory: opts.Inventory,
		recipes:   opts.Recipes,
		chat:      opts.Chat,
		donations: opts.Donations,
		jobs:      opts.Jobs,
		limiter:   newUserLimiter(opts.RatePerMinute),
		log:       log,
	}
}

func (h *Handler) authorizedUserID(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return 0, false
	}
	return userID, true
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestID(), requestLogger(h.log))

	api := router.Group("/api")
	api.POST("/users/register", h.registerUser)
	api.POST("/users/login", h.loginUser)

	userRoutes := api.Group("/users/:id")
	userRoutes.Use(h.auth.Middleware(), auth.RequirePathUser(), h.auth.CSRFMiddleware())
	userRoutes.GET("/inventory", h.listInventory)
	userRoutes.POST("/inventory", h.addInventoryItem)
	userRoutes.DELETE("/inventory/:item_id", h.deleteInventoryItem)
	userRoutes.POST("/recipes", h.rateLimited(), h.generateRecipe)
	userRoutes.GET("/recipes/latest", h.latestRecipe)
	userRoutes.POST("/chat", h.rateLimited(), h.chatMessage)
	userRoutes.GET("/communities", h.listCommunities)
	userRoutes.POST("/communities", h.createCommunity)
	userRoutes.POST("/donations", h.createDonation)
	userRoutes.GET("/locations", h.listLocations)
	userRoutes.POST("/logout", h.logoutUser)
	userRoutes.DELETE("", h.deleteUser)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.auth.RegisterUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, auth.ErrCredentialsRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("register user failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
	})
}

func (h *Handler) loginUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	authToken, err := h.auth.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	h.setAuthCookies(c, authToken, csrfToken)
	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
		"auth_token": authToken,
		"csrf_token": csrfToken,
	})
}

func (h *Handler) logoutUser(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	h.cancelJobs(userID)
	if authToken, ok := auth.AuthTokenFromContext(c); ok {
		if err := h.auth.RevokeToken(c.Request.Context(), authToken); err != nil {
			h.log.Warn("revoke token failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	if err := h.auth.RevokeUserTokens(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.cancelJobs(id)
	h.limiter.forget(id)
	if err := h.auth.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) cancelJobs(userID int64) {
	if h.jobs != nil {
		h.jobs.CancelUser(userID)
	}
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	ttl := int(h.auth.TokenTTL().Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	secure := gin.Mode() == gin.ReleaseMode
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.auth.AuthCookieName(),
		Value:    authToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.AuthCookieName(), h.auth.CSRFCookieName()} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Path:     "/",
			Secure:   gin.Mode() == gin.ReleaseMode,
			HttpOnly: name == h.auth.AuthCookieName(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}
