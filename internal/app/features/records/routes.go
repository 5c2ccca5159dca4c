package records

import (
	"github.com/dalemusser/tripjournal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Register adds the per-feed record routes to r, which is mounted at
// "/feeds" behind auth.RequireActor.
func Register(r chi.Router, h *Handler) {
	r.Get("/{feedID}/records", h.ServeList)
	r.Post("/{feedID}/records", h.HandleCreate)
}

// Routes returns the router mounted at "/records".
func Routes(h *Handler, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireActor(logger))

		pr.Post("/swap", h.HandleSwap)
		pr.Get("/{recordID}", h.ServeRecord)
		pr.Patch("/{recordID}", h.HandleUpdate)
		pr.Delete("/{recordID}", h.HandleDelete)
	})

	return r
}
