package feeds

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/tripjournal/internal/app/features/errors"
	"github.com/dalemusser/tripjournal/internal/app/system/auth"
	"github.com/dalemusser/tripjournal/internal/app/system/inputval"
	"github.com/dalemusser/tripjournal/internal/app/system/timeouts"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type createInput struct {
	Title   string `json:"title" validate:"required,max=200" label:"Title"`
	StartAt string `json:"start_at" validate:"required,date" label:"Start date"`
	EndAt   string `json:"end_at" validate:"required,date" label:"End date"`
}

// HandleCreate handles POST /feeds. The acting user becomes the owner.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	var in createInput
	if err := uierrors.Decode(r, &in); err != nil {
		uierrors.RenderBadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderBadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, err := h.Feeds.Create(ctx, actor, in.Title, models.Date(in.StartAt), models.Date(in.EndAt))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, f)
}

// ServeFeed handles GET /feeds/{feedID}.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, err := h.Feeds.Get(ctx, actor, chi.URLParam(r, "feedID"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, f)
}

// HandleDelete handles DELETE /feeds/{feedID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Feeds.Delete(ctx, actor, chi.URLParam(r, "feedID")); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
