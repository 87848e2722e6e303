package auth

import (
	"net/http"
	"strings"
)

const (
	AccessTokenCookie = "access_token"
	accessTokenQuery  = "access_token"
	bearerPrefix      = "bearer "
)

// ExtractAccessToken looks for the caller's JWT in the Authorization header,
// then the access_token cookie, then the query string of a websocket upgrade.
func ExtractAccessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if websocketUpgrade(r) {
		return r.URL.Query().Get(accessTokenQuery)
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
