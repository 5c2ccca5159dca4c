package records

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/tripjournal/internal/app/features/errors"
	"github.com/dalemusser/tripjournal/internal/app/system/auth"
	"github.com/dalemusser/tripjournal/internal/app/system/inputval"
	"github.com/dalemusser/tripjournal/internal/app/system/limits"
	"github.com/dalemusser/tripjournal/internal/app/system/normalize"
	"github.com/dalemusser/tripjournal/internal/app/system/timeouts"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type createInput struct {
	Date    string `json:"date" validate:"required,date" label:"Date"`
	Title   string `json:"title" validate:"max=200" label:"Title"`
	Content string `json:"content"`
}

type updateInput struct {
	Title   string `json:"title" validate:"max=200" label:"Title"`
	Content string `json:"content"`
}

type swapInput struct {
	OriginalRecordID string `json:"original_record_id" validate:"required" label:"Original record id"`
	TargetRecordID   string `json:"target_record_id" validate:"required" label:"Target record id"`
}

type listResponse struct {
	Records []models.Record `json:"records"`
}

// ServeList handles GET /feeds/{feedID}/records?date=YYYY-MM-DD.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	date := models.Date(normalize.QueryParam(r.URL.Query().Get("date")))
	out, err := h.Records.List(ctx, actor, chi.URLParam(r, "feedID"), date)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if out == nil {
		out = []models.Record{}
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Records: out})
}

// HandleCreate handles POST /feeds/{feedID}/records.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	var in createInput
	if err := uierrors.DecodeLimit(r, &in, limits.MaxRecordBody); err != nil {
		uierrors.RenderBadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderBadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, err := h.Records.Create(ctx, actor, chi.URLParam(r, "feedID"), models.Date(in.Date),
		models.RecordPayload{Title: in.Title, Content: in.Content})
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, rec)
}

// ServeRecord handles GET /records/{recordID}.
func (h *Handler) ServeRecord(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := h.Records.Get(ctx, actor, chi.URLParam(r, "recordID"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, rec)
}

// HandleUpdate handles PATCH /records/{recordID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	var in updateInput
	if err := uierrors.DecodeLimit(r, &in, limits.MaxRecordBody); err != nil {
		uierrors.RenderBadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderBadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, err := h.Records.Update(ctx, actor, chi.URLParam(r, "recordID"),
		models.RecordPayload{Title: in.Title, Content: in.Content})
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.JSON(w, http.StatusOK, rec)
}

// HandleDelete handles DELETE /records/{recordID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Records.Delete(ctx, actor, chi.URLParam(r, "recordID")); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSwap handles POST /records/swap.
func (h *Handler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	var in swapInput
	if err := uierrors.Decode(r, &in); err != nil {
		uierrors.RenderBadRequest(w, err.Error())
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderBadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Records.SwapSequence(ctx, actor, in.OriginalRecordID, in.TargetRecordID); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
