package server

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// requestID attaches a request ID to every request, honoring a
// caller-supplied one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger emits one structured line per request and records the
// prometheus counters.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		op := operationName(c)
		status := c.Writer.Status()
		elapsed := time.Since(start)

		requestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(op).Observe(elapsed.Seconds())

		logger.Info("request",
			"request_id", c.GetString("request_id"),
			"op", op,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}

// operationName labels a request for logs and metrics by its route shape.
func operationName(c *gin.Context) string {
	switch c.FullPath() {
	case "/healthz":
		return "health"
	case "/metrics":
		return "metrics"
	case "/:bucket":
		return "list_objects"
	case "/:bucket/*key":
		switch c.Request.Method {
		case "PUT":
			return "put_object"
		case "DELETE":
			return "delete_object"
		default:
			return "get_object"
		}
	default:
		return "unknown"
	}
}
