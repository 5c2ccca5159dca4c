// internal/app/features/auditlog/routes.go
package auditlog

import "github.com/go-chi/chi/v5"

// Register adds the audit history route to r, which is mounted at "/feeds"
// behind auth.RequireActor.
func Register(r chi.Router, h *Handler) {
	r.Get("/{feedID}/audit", h.ServeList)
}
