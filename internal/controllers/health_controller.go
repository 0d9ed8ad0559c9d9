package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

// Health answers 200 while every pinger succeeds and 503 otherwise.
func Health(pingers map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}
		for name, ping := range pingers {
			if err := ping(ctx); err != nil {
				logrus.WithError(err).WithField("dependency", name).Warn("Health check failed")
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "up"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	}
}
