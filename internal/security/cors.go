package security

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const preflightMaxAge = 24 * time.Hour

// CORS restricts cross-origin access to the configured origins. Requests
// without an Origin header (curl, server-to-server) are not affected.
// Origins must carry an http:// or https:// scheme; "*" is refused because
// credentials are allowed.
func CORS(allowedOrigins []string) (gin.HandlerFunc, error) {
	if slices.Contains(allowedOrigins, "*") {
		return nil, errors.New("cors: wildcard origin cannot be combined with credentials")
	}
	cfg := corsConfig(allowedOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}
	return cors.New(cfg), nil
}

func corsConfig(allowedOrigins []string) cors.Config {
	return cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-Id", headerLimit, headerRemaining, headerReset, headerRetryAfter},
		AllowCredentials: true,
		MaxAge:           preflightMaxAge,
	}
}
