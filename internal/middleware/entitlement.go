// Package middleware provides HTTP middleware shared across the router.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "poscore/internal/errors"
	"poscore/internal/license"
)

// RequireEntitlement blocks collaborator routes while the installation has
// no active trial or license. The answer is recomputed per request; a trial
// expiring between requests takes effect immediately.
func RequireEntitlement(manager license.ManagerInterface, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			status := manager.Status(r.Context())
			if !status.Entitled() {
				logger.DebugContext(r.Context(), "request blocked, not entitled",
					slog.String("state", string(status.State)),
					slog.String("path", r.URL.Path),
				)
				render.Render(w, r, apierrors.ErrNotEntitled)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
