package feeds

import "github.com/go-chi/chi/v5"

// Register adds the feed routes to r, which is mounted at "/feeds" behind
// auth.RequireActor.
func Register(r chi.Router, h *Handler) {
	r.Post("/", h.HandleCreate)
	r.Get("/{feedID}", h.ServeFeed)
	r.Delete("/{feedID}", h.HandleDelete)
}
