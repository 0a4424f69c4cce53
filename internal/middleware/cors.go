package middleware

import (
	"crowdx-backend/config"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// PathCORS applies the CORS policy only to request paths matching
// cfg.CORSPathPattern. Other paths get no CORS headers at all.
func PathCORS(cfg *config.Config) (gin.HandlerFunc, error) {
	pattern, err := regexp.Compile(cfg.CORSPathPattern)
	if err != nil {
		return nil, fmt.Errorf("CORS_PATH_PATTERN: %w", err)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return nil, errors.New("CORS_ALLOWED_ORIGINS must list at least one origin")
	}

	policy := cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})

	return func(c *gin.Context) {
		if !pattern.MatchString(c.Request.URL.Path) {
			c.Next()
			return
		}
		policy(c)
	}, nil
}
