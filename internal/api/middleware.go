package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fridgefriend/internal/auth"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

// requestID tags each request with an id, reusing the caller's if present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDContextKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("request_id", c.GetString(requestIDContextKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// userLimiter hands out a token bucket per user. A nil limiter allows everything.
type userLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[int64]*rate.Limiter
}

func newUserLimiter(perMinute int) *userLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &userLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		buckets: make(map[int64]*rate.Limiter),
	}
}

func (l *userLimiter) allow(userID int64) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	lim, ok := l.buckets[userID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.buckets[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (l *userLimiter) forget(userID int64) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.buckets, userID)
	l.mu.Unlock()
}

func (h *Handler) rateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := auth.UserIDFromContext(c)
		if !h.limiter.allow(userID) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, slow down"})
			return
		}
		c.Next()
	}
}
