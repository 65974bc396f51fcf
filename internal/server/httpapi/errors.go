package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/violetear/api/internal/common"
)

// statusClientClosedRequest is the nginx convention for a client that went
// away before the response was written.
const statusClientClosedRequest = 499

// statusFor is the single place where service errors become status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorUnauthenticated), errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the mapped status. Every 401 carries the same body so
// a bad token and a foreign report look alike. Unclassified errors get a
// generic body so storage details never leak.
func (a *API) abortWithError(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	switch code {
	case http.StatusUnauthorized:
		msg = common.ErrorUnauthorized.Error()
	case statusClientClosedRequest:
		a.log.Debug(c.Request.Context(), "client went away", "path", c.FullPath(), "request_id", requestID(c))
		msg = context.Canceled.Error()
	case http.StatusInternalServerError:
		a.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err, "request_id", requestID(c))
		msg = common.ErrorInternal.Error()
	}
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}
