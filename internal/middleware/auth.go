package middleware

import (
	"KeyVault/internal/access"
	"KeyVault/internal/auth"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type ctxKey struct{}

// TokenVerifier проверяет токен сессии.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type authError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WithAuth требует заголовок Authorization: Bearer <token>. Проверенная идентичность
// кладётся в контекст запроса; иначе ответ 401 с причиной в details.
func WithAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Authentication required", "No token provided")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				details := "invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					details = "token expired"
				}
				sugar.Debugw("token rejected", "reason", details, "remote", r.RemoteAddr)
				unauthorized(w, "Invalid or expired token", details)
				return
			}

			id := access.Identity{
				UserID:   claims.UserID,
				Username: claims.Username,
				Role:     access.Role(claims.Role),
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity кладёт идентичность в контекст.
func WithIdentity(ctx context.Context, id access.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// GetIdentity достаёт идентичность, положенную WithAuth.
func GetIdentity(ctx context.Context) (access.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(access.Identity)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

func unauthorized(w http.ResponseWriter, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(authError{Error: msg, Details: details})
}
