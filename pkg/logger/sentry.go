package logger

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// InitSentry configures error tracking for the process. An empty dsn leaves
// it off and reports false.
func InitSentry(dsn, appEnv string) (bool, error) {
	if dsn == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      appEnv,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, fmt.Errorf("sentry init: %w", err)
	}
	return true, nil
}

// FlushSentry waits up to timeout for buffered events to be delivered.
func FlushSentry(timeout time.Duration) {
	sentry.Flush(timeout)
}

// ErrorTracker binds a Sentry hub to each request. It must run inside
// ErrorLogger: panics are reported here and then re-raised so ErrorLogger
// still logs them and writes the generic response.
func ErrorTracker() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

// reportError forwards a handler error to the request's hub. Requests that
// did not pass through ErrorTracker have none.
func reportError(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

func tagUser(c *gin.Context, id string) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.Scope().SetUser(sentry.User{ID: id})
	}
}
