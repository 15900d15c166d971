package logger

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"
	ginLoggerKey    = "logger"
	ginUserIDKey    = "log_user_id"
)

// RequestLogger injects a request_id and emits one summary event per request
// once the rest of the chain has finished, rejections included.
func RequestLogger(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)

		// attach request_id logger
		reqLogger := l.With("request_id", rid)
		c.Set(ginLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(With(c.Request.Context(), reqLogger))

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"url", c.Request.URL.RequestURI(),
			"status", status,
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000,
			"ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if uid := c.GetString(ginUserIDKey); uid != "" {
			attrs = append(attrs, "user_id", uid)
		}

		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error("Request failed", attrs...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn("Request error", attrs...)
		default:
			reqLogger.Info("Request completed", attrs...)
		}
	}
}

// SetUserID records the authenticated caller for the request summary and
// for any error reported to Sentry.
func SetUserID(c *gin.Context, id string) {
	c.Set(ginUserIDKey, id)
	tagUser(c, id)
}

// ErrorLogger is the terminal handler for unhandled errors: panics and
// private errors attached with c.Error. Each is logged once with request
// details, then respond writes the generic response if nothing was written.
// Private errors also go to Sentry when ErrorTracker runs inside it; panics
// were already reported there.
func ErrorLogger(respond gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			logUnhandled(c, err, string(debug.Stack()))
			respond(c)
		}()

		c.Next()

		private := c.Errors.ByType(gin.ErrorTypePrivate)
		for _, e := range private {
			logUnhandled(c, e.Err, "")
			reportError(c, e.Err)
		}
		if len(private) > 0 && !c.Writer.Written() {
			respond(c)
		}
	}
}

func logUnhandled(c *gin.Context, err error, stack string) {
	attrs := []any{
		"error", err.Error(),
		"method", c.Request.Method,
		"url", c.Request.URL.RequestURI(),
		"ip", c.ClientIP(),
	}
	if stack != "" {
		attrs = append(attrs, "stack", stack)
	}
	FromGin(c).Error("Unhandled error", attrs...)
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
