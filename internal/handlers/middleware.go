package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionUserKey  = "user_id"
	ctxUserID       = "userId"
	ctxRequestID    = "requestId"
	requestIDHeader = "X-Request-ID"
)

func sessionUserID(c *gin.Context) (int, bool) {
	id, ok := sessions.Default(c).Get(sessionUserKey).(int)
	return id, ok && id > 0
}

// authRequired rejects requests without a logged-in session and stores the
// user id in the Gin context.
func (h *Handler) authRequired(c *gin.Context) {
	id, ok := sessionUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "login required",
		})
		return
	}

	c.Set(ctxUserID, id)
	c.Next()
}

// guestOnly blocks auth pages for users that are already logged in.
func (h *Handler) guestOnly(c *gin.Context) {
	if _, ok := sessionUserID(c); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "already logged in",
		})
		return
	}
	c.Next()
}

func currentUserID(c *gin.Context) int {
	return c.GetInt(ctxUserID)
}

func (h *Handler) rateLimit(c *gin.Context) {
	if h.services.RateLimiter != nil && !h.services.Allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "rate limit exceeded, try again later",
		})
		return
	}
	c.Next()
}

// requestID propagates or assigns X-Request-ID.
func (h *Handler) requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(ctxRequestID, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func (h *Handler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log != nil {
		h.log.Infow("http_request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(ctxRequestID),
		)
	}
}

func (h *Handler) limitBody(c *gin.Context) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes)
	}
	c.Next()
}

// filesOnly hides directory listings of the image store.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := file.Stat()
	if err != nil || st.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
