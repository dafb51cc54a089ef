package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/transport/http/respond"
)

type ctxKey int

const actorKey ctxKey = 0

// TokenVerifier checks a bearer token and resolves the calling identity.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (model.Actor, error)
}

// Authenticate extracts the Authorization bearer token, verifies it, and
// injects the resulting actor into the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respond.Err(w, r, model.ErrUnauthorized)
				return
			}

			actor, err := verifier.VerifyToken(token)
			if err != nil {
				respond.Err(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(model.Actor)
	return actor, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
