// internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gurkanbulca/taskdesk/pkg/auth"
)

// AuthMiddleware rejects requests without a valid service token.
type AuthMiddleware struct {
	tokenManager *auth.TokenManager
	publicPaths  map[string]bool
}

// NewAuthMiddleware creates a new auth middleware. publicPaths are served
// without a token.
func NewAuthMiddleware(tokenManager *auth.TokenManager, publicPaths ...string) *AuthMiddleware {
	public := map[string]bool{
		"/healthz": true,
	}
	for _, p := range publicPaths {
		public[p] = true
	}
	return &AuthMiddleware{
		tokenManager: tokenManager,
		publicPaths:  public,
	}
}

// Handler wraps next with token authentication.
func (a *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		ctx, err := a.authenticate(r)
		if err != nil {
			log.Printf("[ERROR] %s %s unauthenticated: %v", r.Method, r.URL.Path, err)
			writeUnauthorized(w, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate validates the bearer token and records the calling service.
func (a *AuthMiddleware) authenticate(r *http.Request) (context.Context, error) {
	token, err := auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	claims, err := a.tokenManager.ValidateServiceToken(token)
	if err != nil {
		return nil, err
	}

	return context.WithValue(r.Context(), ContextKeyService, claims.Service), nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="taskdesk"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"isSuccess":  false,
		"message":    message,
	})
}
