// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/tripjournal/internal/app/features/errors"
	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/app/store/audit"
	"github.com/dalemusser/tripjournal/internal/app/system/auth"
	"github.com/dalemusser/tripjournal/internal/app/system/paging"
	"github.com/dalemusser/tripjournal/internal/app/system/timeouts"
	"github.com/dalemusser/tripjournal/internal/domain/journalerr"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Reader is implemented by the Mongo audit store and the SQL audit recorder.
type Reader interface {
	ByFeed(ctx context.Context, feedID string, limit int64) ([]audit.Entry, error)
}

type Handler struct {
	Feeds  ports.FeedDirectory
	Audit  Reader
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an audit log feature handler.
func NewHandler(feeds ports.FeedDirectory, reader Reader, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Feeds:  feeds,
		Audit:  reader,
		Log:    logger,
		ErrLog: errLog,
	}
}

type listResponse struct {
	Events []audit.Entry `json:"events"`
}

// ServeList handles GET /feeds/{feedID}/audit?limit=N. Only the feed owner
// may read a feed's history; newest events come first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentActor(r)

	limit, err := paging.ParseLimit(r, paging.PageSize, paging.MaxPageSize)
	if err != nil {
		uierrors.RenderBadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	feed, err := h.Feeds.Feed(ctx, chi.URLParam(r, "feedID"))
	if errors.Is(err, ports.ErrNotFound) {
		h.ErrLog.Write(w, r, journalerr.ErrFeedNotFound)
		return
	}
	if err != nil {
		h.ErrLog.Write(w, r, fmt.Errorf("load feed: %w", err))
		return
	}
	if !feed.IsOwner(actor) {
		h.ErrLog.Write(w, r, journalerr.ErrForbidden)
		return
	}

	events, err := h.Audit.ByFeed(ctx, feed.ID, limit)
	if err != nil {
		h.ErrLog.Write(w, r, fmt.Errorf("read audit log: %w", err))
		return
	}
	if events == nil {
		events = []audit.Entry{}
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Events: events})
}
