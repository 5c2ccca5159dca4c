// Package users seeds the local user directory. Accounts are owned by the
// identity service in production; rows here only answer existence checks.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/app/system/inputval"
	"github.com/dalemusser/tripjournal/internal/app/system/normalize"
	"github.com/dalemusser/tripjournal/internal/domain/journalerr"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the subset of ports.Store the service needs.
type Store interface {
	ports.UserDirectory
	ports.UserStore
}

type createInput struct {
	Name  string `validate:"required,max=200" label:"Name"`
	Email string `validate:"required,email,max=254" label:"Email"`
}

// Service creates users.
type Service struct {
	store Store
	log   *zap.Logger
}

// New creates a Service.
func New(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, log: logger}
}

// Create inserts a user. The email is stored lowercased.
func (s *Service) Create(ctx context.Context, name, email string) (*models.User, error) {
	in := createInput{Name: normalize.Name(name), Email: normalize.Email(email)}
	if res := inputval.Validate(in); res.HasErrors() {
		return nil, journalerr.Invalid(res.First())
	}

	u := &models.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return nil, journalerr.Invalid("user already exists")
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	s.log.Info("user created", zap.String("user_id", u.ID))
	return u, nil
}

// Exists reports whether userID is known.
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	if !inputval.IsValidID(userID) {
		return false, nil
	}
	return s.store.UserExists(ctx, userID)
}
