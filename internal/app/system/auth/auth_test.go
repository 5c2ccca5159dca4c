package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/tripjournal/internal/app/system/auth"
	"go.uber.org/zap"
)

func protected(t *testing.T, wantActor string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.CurrentActor(r)
		if !ok || id != wantActor {
			t.Errorf("actor = %q, %v; want %q", id, ok, wantActor)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireActor_NoHeader_Returns401(t *testing.T) {
	handler := auth.LoadActor(auth.RequireActor(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})))

	req := httptest.NewRequest("GET", "/feeds/1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "UNAUTHORIZED") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRequireActor_BlankHeader_Returns401(t *testing.T) {
	handler := auth.LoadActor(auth.RequireActor(zap.NewNop())(protected(t, "")))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(auth.Header, "   ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireActor_WithHeader_Proceeds(t *testing.T) {
	handler := auth.LoadActor(auth.RequireActor(zap.NewNop())(protected(t, "user-1")))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(auth.Header, " user-1 ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestActor(t *testing.T) {
	if _, ok := auth.Actor(context.Background()); ok {
		t.Error("expected no actor on empty context")
	}
	if _, ok := auth.Actor(auth.WithActor(context.Background(), "")); ok {
		t.Error("empty id should not count as an actor")
	}
	id, ok := auth.Actor(auth.WithActor(context.Background(), "u"))
	if !ok || id != "u" {
		t.Errorf("Actor = %q, %v", id, ok)
	}
}
