// internal/app/features/members/routes.go
package members

import "github.com/go-chi/chi/v5"

// Register adds the contributor routes to r, which is mounted at "/feeds"
// behind auth.RequireActor.
func Register(r chi.Router, h *Handler) {
	r.Get("/{feedID}/members", h.ServeList)
	r.Post("/{feedID}/members", h.HandleInvite)
	r.Delete("/{feedID}/members/{userID}", h.HandleExpel)
	r.Post("/{feedID}/leave", h.HandleLeave)
}
