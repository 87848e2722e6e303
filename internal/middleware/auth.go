package middleware

import (
	"net/http"

	"farm-to-keells/internal/auth"
	"farm-to-keells/internal/logger"
	"farm-to-keells/internal/utils"

	"go.uber.org/zap"
)

// AuthMiddleware attaches the caller identity when a bearer token or
// access_token cookie is present. Anonymous requests pass through; a token
// that fails validation is rejected.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := auth.ExtractAccessToken(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := auth.ParseJWT(tokenStr)
		if err != nil {
			logger.FromCtx(r.Context()).Warn("rejected access token",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			utils.WriteJSONError(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := utils.SetUserContext(r.Context(), claims.FarmerID, claims.Username, string(claims.Role))
		ctx = logger.WithActor(ctx, string(claims.Role), claims.FarmerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers that are anonymous or hold none of the roles.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := utils.GetUserRoleFromContext(r.Context())
			if role == "" {
				utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
				return
			}
			for _, allowed := range roles {
				if role == string(allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.WriteJSONError(w, "forbidden", http.StatusForbidden)
		})
	}
}
