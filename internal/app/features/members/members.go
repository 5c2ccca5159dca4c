package members

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/tripjournal/internal/app/features/errors"
	"github.com/dalemusser/tripjournal/internal/app/system/auth"
	"github.com/dalemusser/tripjournal/internal/app/system/inputval"
	"github.com/dalemusser/tripjournal/internal/app/system/normalize"
	"github.com/dalemusser/tripjournal/internal/app/system/timeouts"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type inviteInput struct {
	UserID string `json:"user_id" validate:"required" label:"User id"`
}

type listResponse struct {
	Members []models.Membership `json:"members"`
}

// ServeList handles GET /feeds/{feedID}/members. ?history=1 includes ended
// memberships.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)
	withHistory := normalize.Flag(r.URL.Query().Get("history"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Registry.Members(ctx, actor, chi.URLParam(r, "feedID"), withHistory)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.Membership{}
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Members: rows})
}

// HandleInvite handles POST /feeds/{feedID}/members.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	var in inviteInput
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

	m, err := h.Registry.Invite(ctx, actor, chi.URLParam(r, "feedID"), in.UserID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, m)
}

// HandleExpel handles DELETE /feeds/{feedID}/members/{userID}.
func (h *Handler) HandleExpel(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := h.Registry.Expel(ctx, actor, chi.URLParam(r, "feedID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLeave handles POST /feeds/{feedID}/leave.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Registry.Leave(ctx, actor, chi.URLParam(r, "feedID")); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
