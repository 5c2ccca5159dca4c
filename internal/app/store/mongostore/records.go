package mongostore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func counterKey(feedID string, date models.Date) string {
	return feedID + "|" + date.String()
}

// IncrementCounter upserts the counter and returns the post-increment value.
// Two first-time upserts can race on _id; the loser retries once and then
// finds the document.
func (s *Store) IncrementCounter(ctx context.Context, feedID string, date models.Date) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	filter := bson.M{"_id": counterKey(feedID, date)}
	update := bson.M{
		"$inc":         bson.M{"value": 1},
		"$setOnInsert": bson.M{"feed_id": feedID, "date": date},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if err == nil {
			return doc.Value, nil
		}
		if !wafflemongo.IsDup(err) {
			return 0, err
		}
	}
	return 0, err
}

// CurrentCounter returns the last issued value, or 0.
func (s *Store) CurrentCounter(ctx context.Context, feedID string, date models.Date) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOne(ctx, bson.M{"_id": counterKey(feedID, date)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Value, nil
}

// InsertRecord inserts r if its author may still write to the feed: the feed
// is live and the author owns it or holds the active membership. The check
// and the insert share one transaction, and the transaction stamps the row
// that grants the right (the membership, or the feed for its owner). A
// concurrent expel, leave or feed delete writes that same document, so one
// of the two transactions hits a write conflict and is retried against the
// other's result. A closed membership is ports.ErrNotMatched, a deleted feed
// ports.ErrNotFound, and a taken (feed, date, sequence) ports.ErrConflict.
func (s *Store) InsertRecord(ctx context.Context, r *models.Record) error {
	return s.inTxn(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		stamp := bson.M{"$set": bson.M{"last_record_at": now}}

		var f models.Feed
		if err := s.feeds.FindOne(ctx, live(bson.M{"_id": r.FeedID})).Decode(&f); err != nil {
			return notFound(err)
		}
		if f.IsOwner(r.AuthorID) {
			res, err := s.feeds.UpdateOne(ctx, live(bson.M{"_id": f.ID}), stamp)
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return ports.ErrNotFound
			}
		} else {
			res, err := s.memberships.UpdateOne(ctx,
				bson.M{"feed_id": r.FeedID, "user_id": r.AuthorID, "status": models.MembershipActive},
				stamp)
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return ports.ErrNotMatched
			}
		}

		if _, err := s.records.InsertOne(ctx, r); err != nil {
			if wafflemongo.IsDup(err) {
				return ports.ErrConflict
			}
			return err
		}
		return nil
	})
}

// GetRecord returns a live record.
func (s *Store) GetRecord(ctx context.Context, recordID string) (*models.Record, error) {
	var r models.Record
	if err := s.records.FindOne(ctx, live(bson.M{"_id": recordID})).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// ListRecords returns live records ordered by date then sequence.
func (s *Store) ListRecords(ctx context.Context, feedID string, date models.Date) ([]models.Record, error) {
	filter := live(bson.M{"feed_id": feedID})
	if date != "" {
		filter["date"] = date
	}
	cur, err := s.records.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "sequence", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Record{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRecordContent replaces title and content of a live record.
func (s *Store) UpdateRecordContent(ctx context.Context, recordID string, p models.RecordPayload) (*models.Record, error) {
	var r models.Record
	err := s.records.FindOneAndUpdate(ctx,
		live(bson.M{"_id": recordID}),
		bson.M{"$set": bson.M{"title": p.Title, "content": p.Content, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// SoftDeleteRecord marks a live record deleted. Its sequence stays taken.
func (s *Store) SoftDeleteRecord(ctx context.Context, recordID string) error {
	now := time.Now().UTC()
	res, err := s.records.UpdateOne(ctx,
		live(bson.M{"_id": recordID}),
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// SwapSequences exchanges two sequences in one transaction. The lower id
// parks on its negated sequence so the unique bucket index holds between
// steps; each step is conditional on the value read at the start.
func (s *Store) SwapSequences(ctx context.Context, firstID, secondID string) error {
	if firstID == secondID {
		return nil
	}
	ids := []string{firstID, secondID}
	sort.Strings(ids)

	return s.inTxn(ctx, func(ctx context.Context) error {
		cur, err := s.records.Find(ctx,
			live(bson.M{"_id": bson.M{"$in": ids}}),
			options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return err
		}
		var rows []models.Record
		if err := cur.All(ctx, &rows); err != nil {
			return err
		}
		if len(rows) != 2 {
			return ports.ErrNotFound
		}
		a, b := rows[0], rows[1]
		if a.FeedID != b.FeedID || a.Date != b.Date {
			return ports.ErrNotMatched
		}

		now := time.Now().UTC()
		steps := []struct {
			id       string
			from, to int64
		}{
			{a.ID, a.Sequence, -a.Sequence},
			{b.ID, b.Sequence, a.Sequence},
			{a.ID, -a.Sequence, b.Sequence},
		}
		for _, st := range steps {
			res, err := s.records.UpdateOne(ctx,
				live(bson.M{"_id": st.id, "sequence": st.from}),
				bson.M{"$set": bson.M{"sequence": st.to, "updated_at": now}})
			if err != nil {
				if wafflemongo.IsDup(err) {
					return ports.ErrNotMatched
				}
				return err
			}
			if res.MatchedCount != 1 {
				return ports.ErrNotMatched
			}
		}
		return nil
	})
}
