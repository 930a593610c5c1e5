package app

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/tenx-cards/core/internal/config"
)

// corsConfig allows any origin in development. Otherwise allowed_origins is
// matched against the origin host; entries may be "*.example.com" or
// "localhost:*".
func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
	}
	if len(cfg.AllowedOrigins) == 0 || cfg.IsDev() {
		c.AllowOriginFunc = func(string) bool { return true }
		return c
	}
	patterns := cfg.AllowedOrigins
	c.AllowOriginFunc = func(origin string) bool {
		host := originHost(origin)
		for _, pattern := range patterns {
			if matchOrigin(pattern, host) {
				return true
			}
		}
		return false
	}
	return c
}

func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

func matchOrigin(pattern, host string) bool {
	pattern = strings.TrimPrefix(strings.TrimPrefix(pattern, "https://"), "http://")
	if pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	if strings.HasSuffix(pattern, ":*") {
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
