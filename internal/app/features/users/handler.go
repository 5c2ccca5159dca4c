package users

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/tripjournal/internal/app/features/errors"
	"github.com/dalemusser/tripjournal/internal/app/system/timeouts"
	usersvc "github.com/dalemusser/tripjournal/internal/app/users"
	"go.uber.org/zap"
)

// Handler serves dev seeding of the local user directory.
type Handler struct {
	Users  *usersvc.Service
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(svc *usersvc.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Users: svc, Log: logger, ErrLog: errLog}
}

type createInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandleCreate handles POST /users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := uierrors.Decode(r, &in); err != nil {
		uierrors.RenderBadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, in.Name, in.Email)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, u)
}
