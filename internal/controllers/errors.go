package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trip_tracker/internal/apperr"
)

// retryAfterSeconds is what 503 responses advise clients to wait.
const retryAfterSeconds = "5"

// respondError logs err and writes the JSON error body for its class.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	entry := logrus.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	body := gin.H{"error": err.Error(), "code": apperr.Code(err)}
	switch {
	case apperr.IsRetryable(err):
		c.Header("Retry-After", retryAfterSeconds)
		body["error"] = "storage temporarily unavailable, retry later"
		body["retryable"] = true
	case status == http.StatusInternalServerError:
		body["error"] = "internal server error"
	}
	c.AbortWithStatusJSON(status, body)
}

// badRequest reports a malformed body or parameter as InvalidInput.
func badRequest(c *gin.Context, format string, args ...any) {
	respondError(c, apperr.Invalid(format, args...))
}
