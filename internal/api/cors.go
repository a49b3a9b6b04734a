package api

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAgeSeconds  int

	// RejectUnknownOrigins answers 403 to browser requests from origins outside the allowlist.
	// Requests without an Origin header (devices, server-to-server) always pass.
	RejectUnknownOrigins bool
}

func CORSMiddleware(opts CORSOptions) func(http.Handler) http.Handler {
	allowedMethods := opts.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	allowedHeaders := opts.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{"Content-Type", "Authorization"}
	}
	maxAge := opts.MaxAgeSeconds
	if maxAge <= 0 {
		maxAge = 600
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := origin != "" && slices.Contains(opts.AllowedOrigins, origin)

			if origin != "" && !allowed && opts.RejectUnknownOrigins {
				WriteError(w, http.StatusForbidden, "CORS_BLOCKED", "origin not allowed")
				return
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				// Preflight
				if allowed {
					w.Header().Set("Access-Control-Allow-Methods", strings.Join(allowedMethods, ", "))
					w.Header().Set("Access-Control-Allow-Headers", strings.Join(allowedHeaders, ", "))
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
