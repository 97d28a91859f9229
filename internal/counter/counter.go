// Package counter is the atomic increment primitive shared by every repository.
// Counters are never read-modified-written: Mongo-backed stores issue $inc (or a
// single-document pipeline update when the result must be floored at zero).
package counter

import (
	"context"
	"errors"
	"fmt"

	"github.com/askly/askly/backend/go-services/pkg/logger"
	"github.com/askly/askly/backend/go-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("counter document not found")

var log = logger.Named("counter")

// Store increments numeric fields of documents in one collection.
type Store struct {
	col  *mongo.Collection
	name string
}

func NewStore(col *mongo.Collection) *Store {
	return &Store{col: col, name: col.Name()}
}

// Inc atomically adds every delta to its field on the document with the given id.
func (s *Store) Inc(ctx context.Context, id primitive.ObjectID, deltas map[string]int) error {
	inc := IncDoc(deltas)
	if len(inc) == 0 {
		return nil
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc":         inc,
		"$currentDate": bson.M{"updatedAt": true},
	})
	if err != nil {
		return fmt.Errorf("inc %s: %w", s.name, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncClamped adds delta to field and floors the stored result at zero in a single
// pipeline update. A floor hit is reported as drift and returned as clamped=true.
func (s *Store) IncClamped(ctx context.Context, id primitive.ObjectID, field string, delta int) (bool, error) {
	if delta == 0 {
		return false, nil
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{field: 1})
	var before bson.M
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, ClampedIncPipeline(field, delta), opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("clamped inc %s.%s: %w", s.name, field, err)
	}
	_, clamped := Clamp(ToInt(before[field]), delta)
	if clamped {
		ReportDrift(s.name, id, field, ToInt(before[field]), delta)
	}
	return clamped, nil
}

// IncDoc builds the $inc document, skipping zero deltas.
func IncDoc(deltas map[string]int) bson.M {
	inc := bson.M{}
	for f, d := range deltas {
		if d != 0 {
			inc[f] = d
		}
	}
	return inc
}

// ClampedIncPipeline returns an update pipeline computing max(0, field + delta).
func ClampedIncPipeline(field string, delta int) mongo.Pipeline {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, 0}}}
	next := bson.D{{Key: "$max", Value: bson.A{0, bson.D{{Key: "$add", Value: bson.A{current, delta}}}}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: field, Value: next},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}
}

// Clamp returns max(0, current+delta) and whether the floor was applied.
func Clamp(current, delta int) (int, bool) {
	next := current + delta
	if next < 0 {
		return 0, true
	}
	return next, false
}

// ReportDrift records a decrement that would have driven a counter negative.
func ReportDrift(collection string, id primitive.ObjectID, field string, before, delta int) {
	log.Warnf("counter drift: %s %s.%s=%d delta=%d clamped to 0", collection, id.Hex(), field, before, delta)
	metrics.CounterDriftClamped.WithLabelValues(collection).Inc()
}

// ToInt converts a decoded BSON number to int.
func ToInt(v interface{}) int {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
