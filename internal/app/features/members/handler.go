// internal/app/features/members/handler.go
package members

import (
	uierrors "github.com/dalemusser/tripjournal/internal/app/features/errors"
	"github.com/dalemusser/tripjournal/internal/app/membership"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for feed contributors.
type Handler struct {
	Registry *membership.Registry
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(reg *membership.Registry, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Registry: reg,
		Log:      logger,
		ErrLog:   errLog,
	}
}
