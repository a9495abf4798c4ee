package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/GoArmGo/RecipeApp/internal/permission"
)

type ctxKey struct{}

// WithActor кладёт участника запроса в контекст.
func WithActor(ctx context.Context, actor permission.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFrom достаёт участника из контекста; без middleware возвращается анонимный.
func ActorFrom(ctx context.Context) permission.Actor {
	actor, ok := ctx.Value(ctxKey{}).(permission.Actor)
	if !ok {
		return permission.Anonymous()
	}
	return actor
}

// Middleware разбирает заголовок Authorization: Bearer <token>.
// Запрос без заголовка проходит как анонимный; неверный или просроченный токен даёт 401.
func Middleware(secret []byte, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), permission.Anonymous())))
				return
			}

			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				unauthorized(w, "invalid authorization scheme")
				return
			}

			claims, err := ParseToken(strings.TrimSpace(strings.TrimPrefix(header, prefix)), secret)
			if err != nil {
				logger.Warn("rejected bearer token", "path", r.URL.Path, "error", err)
				unauthorized(w, "invalid or expired token")
				return
			}

			userID, _ := claims.UserID()
			actor := permission.Actor{
				Authenticated: true,
				UserID:        userID,
				Username:      claims.Username,
				IsStaff:       claims.IsStaff,
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
