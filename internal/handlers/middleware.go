package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userId"

// accessLog writes one line per request once the handler chain returns.
func (h *Handler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}
	kv := []interface{}{
		"method", c.Request.Method,
		"route", c.FullPath(),
		"status", c.Writer.Status(),
		"latency_ms", time.Since(start).Milliseconds(),
	}
	if uid, ok := getUserID(c); ok {
		kv = append(kv, "user_id", uid)
	}
	if c.Writer.Status() >= http.StatusInternalServerError {
		h.log.Warnw("http_request", kv...)
		return
	}
	h.log.Debugw("http_request", kv...)
}

func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	token, ok := bearerToken(header)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}
	h.authorize(c, token)
}

// wsUserIdMiddleware accepts the Authorization header or a ?token= query value.
func (h *Handler) wsUserIdMiddleware(c *gin.Context) {
	if header := c.GetHeader("Authorization"); header != "" {
		h.userIdMiddleware(c)
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing token",
		})
		return
	}
	h.authorize(c, token)
}

func (h *Handler) authorize(c *gin.Context, token string) {
	userId, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(userIDKey, userId)
	c.Next()
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// getUserID reads the id stored by the auth middleware.
func getUserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

// mustUserID writes a 401 and returns false when no user is set.
func mustUserID(c *gin.Context) (int, bool) {
	id, ok := getUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user id not found"})
	}
	return id, ok
}
