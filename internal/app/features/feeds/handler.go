package feeds

import (
	uierrors "github.com/dalemusser/tripjournal/internal/app/features/errors"
	feedsvc "github.com/dalemusser/tripjournal/internal/app/feeds"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for feeds.
type Handler struct {
	Feeds  *feedsvc.Service
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(svc *feedsvc.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Feeds:  svc,
		Log:    logger,
		ErrLog: errLog,
	}
}
