package middleware

import (
	"net/http"
	"strings"
)

var defaultOrigins = []string{"http://localhost:3000"}

// CORS allows the local web client.
func CORS(next http.Handler) http.Handler {
	return CORSWithOrigins(defaultOrigins)(next)
}

// CORSWithOrigins echoes the request origin when allowed and falls back to
// the first configured origin otherwise.
func CORSWithOrigins(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := origins[0]
			if reqOrigin := r.Header.Get("Origin"); reqOrigin != "" {
				for _, o := range origins {
					if strings.EqualFold(o, reqOrigin) {
						origin = reqOrigin
						break
					}
				}
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Device-ID")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
