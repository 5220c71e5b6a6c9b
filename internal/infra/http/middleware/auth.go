package middleware

import (
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/planforge/api/internal/app"
	"github.com/planforge/api/pkg/apierror"
	"github.com/planforge/api/pkg/jwt"
	"github.com/planforge/api/pkg/logger"
)

// Auth validates the bearer token, rebuilds the immutable identity and
// attaches the per-request view context (identity + stored overlay).
func Auth(tokens *jwt.Manager, sessions *app.SessionService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, r, apierror.Unauthorized("missing bearer token"))
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				writeError(w, r, apierror.Unauthorized("invalid or expired token"))
				return
			}
			ident, err := claims.Identity()
			if err != nil {
				log.Warn("token carried unusable identity", "error", err)
				writeError(w, r, apierror.Unauthorized("invalid token"))
				return
			}

			view := sessions.ViewContextFor(r.Context(), ident)

			ctx := WithIdentity(r.Context(), ident)
			ctx = WithViewContext(ctx, view)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, apiErr *apierror.Error) {
	apiErr.WriteJSON(w, chimw.GetReqID(r.Context()))
}
