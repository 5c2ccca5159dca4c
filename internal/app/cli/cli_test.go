package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/tripjournal/internal/app/cli"
	"github.com/dalemusser/tripjournal/internal/app/store/sqlstore"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/dalemusser/tripjournal/internal/testutil"
	"go.uber.org/zap"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seed creates a schema at path with one feed, its owner and one member.
func seed(t *testing.T, path string) (feedID, memberID string) {
	t.Helper()
	if out, err := run(t, "--driver", "sqlite", "--sqlite-path", path, "schema"); err != nil {
		t.Fatalf("schema: %v (%s)", err, out)
	} else if !strings.Contains(out, "schema ready (sqlite)") {
		t.Fatalf("unexpected schema output: %q", out)
	}

	store, err := sqlstore.Open(sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: path}, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close(context.Background())

	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, store)
	owner := fx.CreateUser(ctx, "owner")
	member := fx.CreateUser(ctx, "member")
	feed := fx.CreateFeed(ctx, owner.ID, "2024-07-01", "2024-07-10")
	fx.AddMember(ctx, feed.ID, member.ID)
	return feed.ID, member.ID
}

func TestSchema_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 2; i++ {
		out, err := run(t, "--driver", "sqlite", "--sqlite-path", path, "--format", "json", "schema")
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		var res map[string]string
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		if res["driver"] != "sqlite" || res["status"] != "ok" {
			t.Errorf("unexpected result %v", res)
		}
	}
}

func TestMembers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	feedID, memberID := seed(t, path)

	out, err := run(t, "--driver", "sqlite", "--sqlite-path", path, "--format", "json", "members", "--feed", feedID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	var rows []models.Membership
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(rows) != 1 || rows[0].UserID != memberID || rows[0].Status != models.MembershipActive {
		t.Errorf("unexpected rows %+v", rows)
	}

	out, err = run(t, "--driver", "sqlite", "--sqlite-path", path, "members", "--feed", feedID, "--history")
	if err != nil {
		t.Fatalf("members --history: %v", err)
	}
	if !strings.Contains(out, "USER") || !strings.Contains(out, memberID) {
		t.Errorf("text output missing header or member: %q", out)
	}

	if _, err := run(t, "--driver", "sqlite", "--sqlite-path", path, "members", "--feed", "missing"); err == nil {
		t.Error("expected error for unknown feed")
	}
}

func TestNextSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	feedID, _ := seed(t, path)
	base := []string{"--driver", "sqlite", "--sqlite-path", path, "next-sequence", "--feed", feedID, "--date", "2024-07-03"}

	out, err := run(t, base...)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if !strings.Contains(out, "current=0 next=1") {
		t.Errorf("unexpected peek output %q", out)
	}

	out, err = run(t, append(base, "--allocate")...)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if !strings.Contains(out, "allocated 1") {
		t.Errorf("unexpected allocate output %q", out)
	}

	out, err = run(t, append([]string{"--format", "json"}, base...)...)
	if err != nil {
		t.Fatalf("peek json: %v", err)
	}
	var res struct {
		Current int64 `json:"current"`
		Next    int64 `json:"next"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Current != 1 || res.Next != 2 {
		t.Errorf("after allocate: current=%d next=%d, want 1 and 2", res.Current, res.Next)
	}
}

func TestRootValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"--driver", "sqlite", "--sqlite-path", path, "--format", "yaml", "schema"}},
		{"unknown driver", []string{"--driver", "cassandra", "schema"}},
		{"missing feed flag", []string{"--driver", "sqlite", "--sqlite-path", path, "members"}},
		{"bad date", []string{"--driver", "sqlite", "--sqlite-path", path, "next-sequence", "--feed", "f", "--date", "July 3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}
