package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// subjectKey holds the authenticated email in the gin context.
const subjectKey = "subject"

// requireToken rejects requests without a valid bearer token before any handler runs.
func (h *Handler) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, message("Missing Authorization Header"))
			return
		}

		subject, err := h.auth.Verify(raw)
		if err != nil {
			h.logger.WithError(err).Debug("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, message("Invalid or expired token"))
			return
		}

		c.Set(subjectKey, subject)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if subject := c.GetString(subjectKey); subject != "" {
			entry = entry.WithField("subject", subject)
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
