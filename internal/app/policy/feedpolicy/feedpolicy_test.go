package feedpolicy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/tripjournal/internal/app/policy/feedpolicy"
	"github.com/dalemusser/tripjournal/internal/domain/models"
)

type fakeMembers struct {
	active map[string]bool
	err    error
}

func (f fakeMembers) IsActiveMember(_ context.Context, feedID, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.active[feedID+"/"+userID], nil
}

func TestIsOwnerOrActiveContributor(t *testing.T) {
	feed := &models.Feed{ID: "f1", OwnerID: "owner"}
	p := feedpolicy.New(fakeMembers{active: map[string]bool{"f1/alice": true}})

	tests := []struct {
		name string
		user string
		feed *models.Feed
		want bool
	}{
		{"owner", "owner", feed, true},
		{"active contributor", "alice", feed, true},
		{"stranger", "bob", feed, false},
		{"empty user", "", feed, false},
		{"nil feed", "owner", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.IsOwnerOrActiveContributor(context.Background(), tt.user, tt.feed)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOwnerOrActiveContributor_StoreError(t *testing.T) {
	p := feedpolicy.New(fakeMembers{err: errors.New("timeout")})
	feed := &models.Feed{ID: "f1", OwnerID: "owner"}

	ok, err := p.IsOwnerOrActiveContributor(context.Background(), "alice", feed)
	if err == nil || ok {
		t.Errorf("expected (false, err), got (%v, %v)", ok, err)
	}

	// owner short-circuits the lookup
	ok, err = p.IsOwnerOrActiveContributor(context.Background(), "owner", feed)
	if err != nil || !ok {
		t.Errorf("owner: got (%v, %v)", ok, err)
	}
}

func TestCanManageMembers(t *testing.T) {
	feed := &models.Feed{ID: "f1", OwnerID: "owner"}
	if !feedpolicy.CanManageMembers("owner", feed) {
		t.Error("owner should manage members")
	}
	if feedpolicy.CanManageMembers("alice", feed) {
		t.Error("contributor should not manage members")
	}
	if feedpolicy.CanManageMembers("owner", nil) {
		t.Error("nil feed")
	}
}
