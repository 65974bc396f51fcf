package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/server/models"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userKey         = "user"
)

// requestContext assigns a request id, reusing a well-formed client one.
func (a *API) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func (a *API) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", requestID(c),
		)
	}
}

func (a *API) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		a.metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		a.metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// bearerToken accepts both "<token>" and "Bearer <token>".
func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader(common.AuthorizationHeaderName))
	if len(h) >= len(common.BearerPrefix) && strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		h = strings.TrimSpace(h[len(common.BearerPrefix):])
	}
	return h
}

// authRequired resolves the bearer token before any other component runs.
func (a *API) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.users.Resolve(c.Request.Context(), bearerToken(c))
		if err != nil {
			a.abortWithError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	u, _ := c.MustGet(userKey).(*models.User)
	return u
}
