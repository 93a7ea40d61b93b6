package rbac

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-auth/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

// Middleware wires role gates for HTTP handlers. It expects the actor to be
// placed in the request context by the bearer authentication middleware.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRole ensures the current actor holds one of the given roles.
// Unknown actor roles are evaluated as Employee.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		if r.Valid() {
			allowed[r] = struct{}{}
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == nil {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if _, ok := allowed[actor.Role.Effective()]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Info("rbac role gate denied",
					slog.Int64("actor_id", actor.ID),
					slog.String("role", string(actor.Role)),
					slog.String("path", r.URL.Path),
				)
			}
			httpx.RespondError(w, shared.ErrForbidden)
		})
	}
}
