package records_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/tripjournal/internal/app/membership"
	"github.com/dalemusser/tripjournal/internal/app/policy/feedpolicy"
	"github.com/dalemusser/tripjournal/internal/app/records"
	"github.com/dalemusser/tripjournal/internal/app/sequence"
	"github.com/dalemusser/tripjournal/internal/app/store/sqlstore"
	"github.com/dalemusser/tripjournal/internal/app/system/notify"
	"github.com/dalemusser/tripjournal/internal/domain/journalerr"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/dalemusser/tripjournal/internal/testutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const day = models.Date("2024-07-02")

type env struct {
	store       *sqlstore.Store
	fx          *testutil.Fixtures
	svc         *records.Service
	ctx         context.Context
	owner       models.User
	contributor models.User
	stranger    models.User
	feed        models.Feed
}

func setup(t *testing.T) *env {
	t.Helper()
	return setupOn(t, testutil.SetupSQLStore)
}

func setupOn(t *testing.T, open func(t *testing.T) *sqlstore.Store) *env {
	t.Helper()
	store := open(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	fx := testutil.NewFixtures(t, store)

	e := &env{
		store: store,
		fx:    fx,
		svc: records.New(store, sequence.New(store, nil), feedpolicy.New(store),
			notify.Discard{}, nil, zap.NewNop()),
		ctx:         ctx,
		owner:       fx.CreateUser(ctx, "owner"),
		contributor: fx.CreateUser(ctx, "contributor"),
		stranger:    fx.CreateUser(ctx, "stranger"),
	}
	e.feed = fx.CreateFeed(ctx, e.owner.ID, "2024-07-01", "2024-07-10")
	fx.AddMember(ctx, e.feed.ID, e.contributor.ID)
	return e
}

func (e *env) create(t *testing.T, userID string, date models.Date) *models.Record {
	t.Helper()
	r, err := e.svc.Create(e.ctx, userID, e.feed.ID, date, models.RecordPayload{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return r
}

func TestCreate_Preconditions(t *testing.T) {
	e := setup(t)

	tests := []struct {
		name    string
		user    string
		feedID  string
		date    models.Date
		wantErr error
	}{
		{"feed missing", e.owner.ID, uuid.NewString(), day, journalerr.ErrFeedNotFound},
		{"stranger", e.stranger.ID, e.feed.ID, day, journalerr.ErrForbidden},
		{"before window", e.owner.ID, e.feed.ID, "2024-06-30", journalerr.ErrDateOutOfRange},
		{"after window", e.contributor.ID, e.feed.ID, "2024-07-11", journalerr.ErrDateOutOfRange},
		{"malformed date", e.owner.ID, e.feed.ID, "July 2nd", journalerr.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Create(e.ctx, tt.user, tt.feedID, tt.date, models.RecordPayload{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
			if errors.Is(tt.wantErr, journalerr.ErrDateOutOfRange) && journalerr.KindOf(err) != journalerr.KindInvalidArgument {
				t.Errorf("out-of-window kind = %v", journalerr.KindOf(err))
			}
		})
	}
}

func TestCreate_WindowIsInclusive(t *testing.T) {
	e := setup(t)
	e.create(t, e.owner.ID, "2024-07-01")
	e.create(t, e.owner.ID, "2024-07-10")
}

func TestCreate_AssignsSequencesPerBucket(t *testing.T) {
	e := setup(t)

	r1 := e.create(t, e.owner.ID, day)
	r2 := e.create(t, e.contributor.ID, day)
	r3 := e.create(t, e.owner.ID, "2024-07-03")

	if r1.Sequence != 1 || r2.Sequence != 2 || r3.Sequence != 1 {
		t.Errorf("sequences = %d, %d, %d; want 1, 2, 1", r1.Sequence, r2.Sequence, r3.Sequence)
	}
	if r2.AuthorID != e.contributor.ID {
		t.Errorf("author = %s", r2.AuthorID)
	}
}

func TestCreate_SanitizesPayload(t *testing.T) {
	e := setup(t)
	r, err := e.svc.Create(e.ctx, e.owner.ID, e.feed.ID, day, models.RecordPayload{
		Title:   "<b>Lisbon</b>",
		Content: `<p>Tram 28</p><script>alert(1)</script>`,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Title != "Lisbon" {
		t.Errorf("title = %q", r.Title)
	}
	if strings.Contains(r.Content, "script") || !strings.Contains(r.Content, "Tram 28") {
		t.Errorf("content = %q", r.Content)
	}
}

func TestCreate_ConcurrentSequencesAreUnique(t *testing.T) {
	for _, b := range testutil.SQLBackends() {
		t.Run(b.Name, func(t *testing.T) {
			e := setupOn(t, b.Open)

			const k = 200
			var wg sync.WaitGroup
			for i := 0; i < k; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					author := e.owner.ID
					if i%2 == 1 {
						author = e.contributor.ID
					}
					if _, err := e.svc.Create(e.ctx, author, e.feed.ID, day, models.RecordPayload{Title: "x"}); err != nil {
						t.Errorf("Create: %v", err)
					}
				}(i)
			}
			wg.Wait()

			list, err := e.svc.List(e.ctx, e.owner.ID, e.feed.ID, day)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != k {
				t.Fatalf("records = %d, want %d", len(list), k)
			}
			seqs := make([]int64, 0, k)
			for _, r := range list {
				seqs = append(seqs, r.Sequence)
			}
			sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
			for i, v := range seqs {
				if v != int64(i+1) {
					t.Fatalf("sequence[%d] = %d, want %d", i, v, i+1)
				}
			}
		})
	}
}

// interleavingStore runs before once, after the service has authorized the
// author and allocated a sequence but before the record is written.
type interleavingStore struct {
	*sqlstore.Store
	before func(ctx context.Context) error
	once   sync.Once
	err    error
}

func (s *interleavingStore) InsertRecord(ctx context.Context, r *models.Record) error {
	s.once.Do(func() { s.err = s.before(ctx) })
	if s.err != nil {
		return s.err
	}
	return s.Store.InsertRecord(ctx, r)
}

func TestCreate_WriteRightRevokedBeforeInsert(t *testing.T) {
	tests := []struct {
		name    string
		revoke  func(ctx context.Context, e *env, reg *membership.Registry) error
		wantErr error
	}{
		{
			name: "expelled",
			revoke: func(ctx context.Context, e *env, reg *membership.Registry) error {
				return reg.Expel(ctx, e.owner.ID, e.feed.ID, e.contributor.ID)
			},
			wantErr: journalerr.ErrForbidden,
		},
		{
			name: "left",
			revoke: func(ctx context.Context, e *env, reg *membership.Registry) error {
				return reg.Leave(ctx, e.contributor.ID, e.feed.ID)
			},
			wantErr: journalerr.ErrForbidden,
		},
		{
			name: "feed deleted",
			revoke: func(ctx context.Context, e *env, _ *membership.Registry) error {
				return e.store.SoftDeleteFeed(ctx, e.feed.ID)
			},
			wantErr: journalerr.ErrFeedNotFound,
		},
	}
	for _, b := range testutil.SQLBackends() {
		for _, tt := range tests {
			t.Run(b.Name+"/"+tt.name, func(t *testing.T) {
				e := setupOn(t, b.Open)
				reg := membership.New(e.store, feedpolicy.New(e.store), notify.Discard{}, nil, zap.NewNop())
				racing := &interleavingStore{
					Store:  e.store,
					before: func(ctx context.Context) error { return tt.revoke(ctx, e, reg) },
				}
				svc := records.New(racing, sequence.New(e.store, nil), feedpolicy.New(e.store),
					notify.Discard{}, nil, zap.NewNop())

				rec, err := svc.Create(e.ctx, e.contributor.ID, e.feed.ID, day, models.RecordPayload{Title: "late"})
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create = %v, %v; want %v", rec, err, tt.wantErr)
				}

				live, err := e.store.ListRecords(e.ctx, e.feed.ID, "")
				if err != nil {
					t.Fatalf("ListRecords: %v", err)
				}
				for _, r := range live {
					if r.AuthorID == e.contributor.ID {
						t.Errorf("record %s by revoked author is live", r.ID)
					}
				}
			})
		}
	}
}

func TestCreate_DeletedSequenceIsNotReused(t *testing.T) {
	e := setup(t)
	r1 := e.create(t, e.owner.ID, day)
	if err := e.svc.Delete(e.ctx, e.owner.ID, r1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	r2 := e.create(t, e.owner.ID, day)
	if r2.Sequence != 2 {
		t.Errorf("sequence after delete = %d, want 2", r2.Sequence)
	}
}

func TestSwapSequence_Involution(t *testing.T) {
	e := setup(t)
	a := e.create(t, e.owner.ID, day)
	b := e.create(t, e.contributor.ID, day)

	if err := e.svc.SwapSequence(e.ctx, e.contributor.ID, a.ID, b.ID); err != nil {
		t.Fatalf("first swap: %v", err)
	}
	gotA, _ := e.svc.Get(e.ctx, e.owner.ID, a.ID)
	gotB, _ := e.svc.Get(e.ctx, e.owner.ID, b.ID)
	if gotA.Sequence != b.Sequence || gotB.Sequence != a.Sequence {
		t.Fatalf("after swap a=%d b=%d", gotA.Sequence, gotB.Sequence)
	}

	if err := e.svc.SwapSequence(e.ctx, e.owner.ID, a.ID, b.ID); err != nil {
		t.Fatalf("second swap: %v", err)
	}
	gotA, _ = e.svc.Get(e.ctx, e.owner.ID, a.ID)
	gotB, _ = e.svc.Get(e.ctx, e.owner.ID, b.ID)
	if gotA.Sequence != a.Sequence || gotB.Sequence != b.Sequence {
		t.Errorf("not restored: a=%d b=%d", gotA.Sequence, gotB.Sequence)
	}
}

func TestSwapSequence_CrossFeedRejectedForEveryone(t *testing.T) {
	e := setup(t)
	other := e.fx.CreateFeed(e.ctx, e.owner.ID, "2024-07-01", "2024-07-10")
	a := e.create(t, e.owner.ID, day)
	b, err := e.svc.Create(e.ctx, e.owner.ID, other.ID, day, models.RecordPayload{})
	if err != nil {
		t.Fatalf("Create in other feed: %v", err)
	}

	for _, user := range []string{e.owner.ID, e.contributor.ID, e.stranger.ID} {
		err := e.svc.SwapSequence(e.ctx, user, a.ID, b.ID)
		if !errors.Is(err, journalerr.ErrCrossFeedSwap) {
			t.Errorf("user %s: got %v, want cross-feed", user, err)
		}
		if journalerr.KindOf(err) != journalerr.KindInvalidArgument {
			t.Errorf("kind = %v", journalerr.KindOf(err))
		}
	}
}

func TestSwapSequence_Errors(t *testing.T) {
	e := setup(t)
	a := e.create(t, e.owner.ID, day)
	b := e.create(t, e.owner.ID, day)
	c := e.create(t, e.owner.ID, "2024-07-03")

	tests := []struct {
		name    string
		user    string
		first   string
		second  string
		wantErr error
	}{
		{"first missing", e.owner.ID, uuid.NewString(), b.ID, journalerr.ErrRecordNotFound},
		{"second missing", e.owner.ID, a.ID, uuid.NewString(), journalerr.ErrRecordNotFound},
		{"different dates", e.owner.ID, a.ID, c.ID, journalerr.ErrCrossDateSwap},
		{"stranger", e.stranger.ID, a.ID, b.ID, journalerr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.svc.SwapSequence(e.ctx, tt.user, tt.first, tt.second); !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := e.svc.SwapSequence(e.ctx, e.owner.ID, a.ID, a.ID); err != nil {
		t.Errorf("self swap: %v", err)
	}
}

func TestSwapSequence_ConcurrentOverlappingPairs(t *testing.T) {
	for _, b := range testutil.SQLBackends() {
		t.Run(b.Name, func(t *testing.T) {
			e := setupOn(t, b.Open)
			var ids []string
			for i := 0; i < 5; i++ {
				ids = append(ids, e.create(t, e.owner.ID, day).ID)
			}

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					a, b := ids[i%5], ids[(i+1)%5]
					if i%2 == 1 {
						a, b = b, a
					}
					if err := e.svc.SwapSequence(e.ctx, e.owner.ID, a, b); err != nil {
						t.Errorf("swap: %v", err)
					}
				}(i)
			}
			wg.Wait()

			list, err := e.svc.List(e.ctx, e.owner.ID, e.feed.ID, day)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			for i, r := range list {
				if r.Sequence != int64(i+1) {
					t.Errorf("position %d has sequence %d", i, r.Sequence)
				}
			}
		})
	}
}

func TestUpdateAndDelete_Permissions(t *testing.T) {
	e := setup(t)
	second := e.fx.CreateUser(e.ctx, "second")
	e.fx.AddMember(e.ctx, e.feed.ID, second.ID)
	rec := e.create(t, e.contributor.ID, day)

	payload := models.RecordPayload{Title: "edited", Content: "body"}
	if _, err := e.svc.Update(e.ctx, second.ID, rec.ID, payload); !errors.Is(err, journalerr.ErrForbidden) {
		t.Errorf("other contributor update: got %v", err)
	}
	if _, err := e.svc.Update(e.ctx, e.contributor.ID, rec.ID, payload); err != nil {
		t.Errorf("author update: %v", err)
	}
	updated, err := e.svc.Update(e.ctx, e.owner.ID, rec.ID, models.RecordPayload{Title: "owner edit"})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "owner edit" || updated.Sequence != rec.Sequence {
		t.Errorf("unexpected record %+v", updated)
	}

	if err := e.svc.Delete(e.ctx, second.ID, rec.ID); !errors.Is(err, journalerr.ErrForbidden) {
		t.Errorf("other contributor delete: got %v", err)
	}
	if err := e.svc.Delete(e.ctx, e.owner.ID, rec.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := e.svc.Get(e.ctx, e.owner.ID, rec.ID); !errors.Is(err, journalerr.ErrRecordNotFound) {
		t.Errorf("get deleted: got %v", err)
	}
	if err := e.svc.Delete(e.ctx, e.owner.ID, rec.ID); !errors.Is(err, journalerr.ErrRecordNotFound) {
		t.Errorf("delete twice: got %v", err)
	}
}

func TestGetAndList_Authorization(t *testing.T) {
	e := setup(t)
	rec := e.create(t, e.owner.ID, day)

	if _, err := e.svc.Get(e.ctx, e.stranger.ID, rec.ID); !errors.Is(err, journalerr.ErrForbidden) {
		t.Errorf("stranger get: got %v", err)
	}
	if _, err := e.svc.List(e.ctx, e.stranger.ID, e.feed.ID, ""); !errors.Is(err, journalerr.ErrForbidden) {
		t.Errorf("stranger list: got %v", err)
	}
	if _, err := e.svc.List(e.ctx, e.owner.ID, e.feed.ID, "bad"); !errors.Is(err, journalerr.ErrInvalidArgument) {
		t.Errorf("bad date: got %v", err)
	}
	all, err := e.svc.List(e.ctx, e.contributor.ID, e.feed.ID, "")
	if err != nil || len(all) != 1 {
		t.Errorf("contributor list = %d, %v", len(all), err)
	}
}
