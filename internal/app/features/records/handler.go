package records

import (
	uierrors "github.com/dalemusser/tripjournal/internal/app/features/errors"
	recordsvc "github.com/dalemusser/tripjournal/internal/app/records"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for records.
type Handler struct {
	Records *recordsvc.Service
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

func NewHandler(svc *recordsvc.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Records: svc,
		Log:     logger,
		ErrLog:  errLog,
	}
}
