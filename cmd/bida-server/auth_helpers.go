package main

import (
	"context"
	"net/http"
	"strings"

	"bida-server/internal/identity"
)

type identityContextKey struct{}

// identityMiddleware resolves the caller once per request. A Bearer token
// must verify or the request is rejected outright; a guest token header is
// taken at face value since the server minted it opaque. Neither header
// means the caller stays anonymous, which read-only endpoints allow.
func identityMiddleware(verifier *identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := identity.Anonymous()
			if auth := r.Header.Get("Authorization"); auth != "" {
				token, ok := strings.CutPrefix(auth, "Bearer ")
				if !ok || token == "" {
					writeHTTPError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				userID, err := verifier.Verify(token)
				if err != nil {
					writeHTTPError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				ident = identity.User(userID)
			} else if guest := r.Header.Get("X-Guest-Token"); guest != "" {
				ident = identity.Guest(guest)
			}
			ctx := context.WithValue(r.Context(), identityContextKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func callerIdentity(r *http.Request) identity.Identity {
	if ident, ok := r.Context().Value(identityContextKey{}).(identity.Identity); ok {
		return ident
	}
	return identity.Anonymous()
}
