// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/tripjournal/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the journal collections (if missing) and tries to attach
// JSON-Schema validators. Collections must exist before the first
// multi-document transaction writes to them. On servers that don't support
// collMod/validators (e.g. some DocumentDB versions), we log and skip.
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, log, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, log, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				log.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("feeds", feedsSchema())
	ensure("memberships", membershipsSchema())
	ensure("records", recordsSchema())
	ensure("sequence_counters", countersSchema())

	// audit rows are free-form
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, log *zap.Logger, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		log.Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			log.Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		log.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	log.Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, log *zap.Logger, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	log.Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

const datePattern = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`

var (
	idString   = bson.M{"bsonType": "string", "minLength": 1}
	dateString = bson.M{"bsonType": "string", "pattern": datePattern}
	optDate    = bson.M{"bsonType": []string{"date", "null"}}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"_id", "created_at"},
			"properties": bson.M{
				"_id":        idString,
				"name":       bson.M{"bsonType": "string"},
				"email":      bson.M{"bsonType": "string"},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func feedsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"_id", "owner_id", "title", "start_at", "end_at"},
			"properties": bson.M{
				"_id":        idString,
				"owner_id":   idString,
				"title":      bson.M{"bsonType": "string", "minLength": 1},
				"start_at":   dateString,
				"end_at":     dateString,
				"deleted_at": optDate,
				// stamped by record inserts from the owner
				"last_record_at": optDate,
			},
		},
	}
}

func membershipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"_id", "feed_id", "user_id", "status", "created_at"},
			"properties": bson.M{
				"_id":     idString,
				"feed_id": idString,
				"user_id": idString,
				"status": bson.M{
					"enum": []string{
						string(models.MembershipActive),
						string(models.MembershipLeft),
						string(models.MembershipExpelled),
					},
				},
				"created_at": bson.M{"bsonType": "date"},
				"ended_at":   optDate,
				// stamped by record inserts from the member
				"last_record_at": optDate,
			},
		},
	}
}

// sequence is only required to be an integer: swaps park one record on a
// negative value between steps.
func recordsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"_id", "feed_id", "author_id", "date", "sequence"},
			"properties": bson.M{
				"_id":        idString,
				"feed_id":    idString,
				"author_id":  idString,
				"date":       dateString,
				"sequence":   bson.M{"bsonType": []string{"int", "long"}},
				"title":      bson.M{"bsonType": "string"},
				"content":    bson.M{"bsonType": "string"},
				"deleted_at": optDate,
			},
		},
	}
}

func countersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{"_id", "value"},
			"properties": bson.M{
				"feed_id": bson.M{"bsonType": "string"},
				"date":    dateString,
				"value":   bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
			},
		},
	}
}
