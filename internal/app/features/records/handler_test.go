package records_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	uierrors "github.com/dalemusser/tripjournal/internal/app/features/errors"
	recordsfeature "github.com/dalemusser/tripjournal/internal/app/features/records"
	"github.com/dalemusser/tripjournal/internal/app/policy/feedpolicy"
	recordsvc "github.com/dalemusser/tripjournal/internal/app/records"
	"github.com/dalemusser/tripjournal/internal/app/sequence"
	"github.com/dalemusser/tripjournal/internal/app/system/auth"
	"github.com/dalemusser/tripjournal/internal/app/system/notify"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/dalemusser/tripjournal/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type fixture struct {
	router   http.Handler
	fx       *testutil.Fixtures
	ctx      context.Context
	owner    models.User
	member   models.User
	stranger models.User
	feed     models.Feed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.SetupSQLStore(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	logger := zap.NewNop()
	svc := recordsvc.New(store, sequence.New(store, nil), feedpolicy.New(store), notify.Discard{}, nil, logger)
	h := recordsfeature.NewHandler(svc, uierrors.NewErrorLogger(logger), logger)

	r := chi.NewRouter()
	r.Use(auth.LoadActor)
	r.Route("/feeds", func(fr chi.Router) {
		fr.Use(auth.RequireActor(logger))
		recordsfeature.Register(fr, h)
	})
	r.Mount("/records", recordsfeature.Routes(h, logger))

	fx := testutil.NewFixtures(t, store)
	f := &fixture{router: r, fx: fx, ctx: ctx}
	f.owner = fx.CreateUser(ctx, "owner")
	f.member = fx.CreateUser(ctx, "member")
	f.stranger = fx.CreateUser(ctx, "stranger")
	f.feed = fx.CreateFeed(ctx, f.owner.ID, "2024-08-01", "2024-08-12")
	fx.AddMember(ctx, f.feed.ID, f.member.ID)
	return f
}

func (f *fixture) do(method, path, body, actor string) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	f.router.ServeHTTP(rec, testutil.NewActorRequest(method, path, body, actor))
	return rec
}

func (f *fixture) create(t *testing.T, actor, date string) models.Record {
	t.Helper()
	rec := f.do("POST", "/feeds/"+f.feed.ID+"/records", fmt.Sprintf(`{"date":%q,"title":"entry"}`, date), actor)
	rec.AssertStatus(t, http.StatusCreated)
	var out models.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func (f *fixture) list(t *testing.T, query string) []models.Record {
	t.Helper()
	rec := f.do("GET", "/feeds/"+f.feed.ID+"/records"+query, "", f.owner.ID)
	rec.AssertStatus(t, http.StatusOK)
	var resp struct {
		Records []models.Record `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Records
}

func TestHandleCreate(t *testing.T) {
	f := newFixture(t)
	path := "/feeds/" + f.feed.ID + "/records"

	tests := []struct {
		name       string
		actor      string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"owner", f.owner.ID, `{"date":"2024-08-02","title":"Reykjavik"}`, http.StatusCreated, ""},
		{"member", f.member.ID, `{"date":"2024-08-02","content":"<p>Geysir</p>"}`, http.StatusCreated, ""},
		{"stranger", f.stranger.ID, `{"date":"2024-08-02"}`, http.StatusForbidden, "FORBIDDEN"},
		{"out of window", f.owner.ID, `{"date":"2024-09-01"}`, http.StatusBadRequest, "DATE_OUT_OF_RANGE"},
		{"missing date", f.owner.ID, `{"title":"x"}`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"no actor", "", `{"date":"2024-08-02"}`, http.StatusUnauthorized, "UNAUTHORIZED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do("POST", path, tt.body, tt.actor)
			rec.AssertStatus(t, tt.wantStatus)
			if tt.wantCode != "" {
				rec.AssertContains(t, tt.wantCode)
			}
		})
	}

	got := f.list(t, "?date=2024-08-02")
	if len(got) != 2 || got[0].Sequence != 1 || got[1].Sequence != 2 {
		t.Errorf("records = %+v", got)
	}
}

func TestHandleCreate_ParallelSequences(t *testing.T) {
	f := newFixture(t)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := f.do("POST", "/feeds/"+f.feed.ID+"/records", `{"date":"2024-08-03"}`, f.member.ID)
			if rec.Code != http.StatusCreated {
				t.Errorf("status %d: %s", rec.Code, rec.Body.String())
			}
		}()
	}
	wg.Wait()

	got := f.list(t, "?date=2024-08-03")
	if len(got) != n {
		t.Fatalf("records = %d, want %d", len(got), n)
	}
	for i, r := range got {
		if r.Sequence != int64(i+1) {
			t.Fatalf("position %d has sequence %d", i, r.Sequence)
		}
	}
}

func TestHandleSwap(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, f.owner.ID, "2024-08-02")
	b := f.create(t, f.member.ID, "2024-08-02")
	c := f.create(t, f.owner.ID, "2024-08-04")
	swap := func(first, second, actor string) *testutil.ResponseRecorder {
		body := fmt.Sprintf(`{"original_record_id":%q,"target_record_id":%q}`, first, second)
		return f.do("POST", "/records/swap", body, actor)
	}

	swap(a.ID, b.ID, f.member.ID).AssertStatus(t, http.StatusNoContent)
	got := f.list(t, "?date=2024-08-02")
	if got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("order after swap = %s, %s", got[0].ID, got[1].ID)
	}

	swap(a.ID, b.ID, f.owner.ID).AssertStatus(t, http.StatusNoContent)
	got = f.list(t, "?date=2024-08-02")
	if got[0].ID != a.ID || got[1].ID != b.ID {
		t.Errorf("order after second swap = %s, %s", got[0].ID, got[1].ID)
	}

	rec := swap(a.ID, c.ID, f.owner.ID)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "CROSS_DATE_SWAP")

	rec = swap(a.ID, b.ID, f.stranger.ID)
	rec.AssertStatus(t, http.StatusForbidden)

	rec = swap(a.ID, "9d7c1a34-0000-4000-8000-000000000000", f.owner.ID)
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "RECORD_NOT_FOUND")

	rec = f.do("POST", "/records/swap", `{"original_record_id":""}`, f.owner.ID)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleSwap_CrossFeed(t *testing.T) {
	f := newFixture(t)
	other := f.fx.CreateFeed(f.ctx, f.owner.ID, "2024-08-01", "2024-08-12")
	a := f.create(t, f.owner.ID, "2024-08-02")
	b := f.fx.CreateRecord(f.ctx, other.ID, f.owner.ID, "2024-08-02", 1)

	rec := f.do("POST", "/records/swap",
		fmt.Sprintf(`{"original_record_id":%q,"target_record_id":%q}`, a.ID, b.ID), f.owner.ID)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "CROSS_FEED_SWAP")
}

func TestRecordReadUpdateDelete(t *testing.T) {
	f := newFixture(t)
	r := f.create(t, f.member.ID, "2024-08-05")
	path := "/records/" + r.ID

	f.do("GET", path, "", f.owner.ID).AssertStatus(t, http.StatusOK)
	f.do("GET", path, "", f.stranger.ID).AssertStatus(t, http.StatusForbidden)

	rec := f.do("PATCH", path, `{"title":"<b>Black sand</b>","content":"Vik"}`, f.member.ID)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"title":"Black sand"`)

	f.do("PATCH", path, `{"title":"x"}`, f.stranger.ID).AssertStatus(t, http.StatusForbidden)
	f.do("DELETE", path, "", f.owner.ID).AssertStatus(t, http.StatusNoContent)
	f.do("GET", path, "", f.owner.ID).AssertStatus(t, http.StatusNotFound)
}
