package users

import (
	"github.com/dalemusser/tripjournal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns the router mounted at "/users".
func Routes(h *Handler, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireActor(logger))
	r.Post("/", h.HandleCreate)
	return r
}
