package tags

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/askly/askly/backend/go-services/internal/counter"
	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository over the "tags" collection.
type MongoRepository struct {
	col      *mongo.Collection
	counters *counter.Store
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col, counters: counter.NewStore(col)}
}

func (r *MongoRepository) UpsertIncrement(ctx context.Context, name string) (*models.Tag, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$setOnInsert": bson.M{"name": name, "createdAt": now},
		"$inc":         bson.M{models.FieldQuestionCount: 1},
		"$set":         bson.M{"updatedAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var t models.Tag
	err := r.col.FindOneAndUpdate(ctx, bson.M{"name": name}, update, opts).Decode(&t)
	if mongo.IsDuplicateKeyError(err) {
		// lost an upsert race on the unique name index; the tag exists now
		err = r.col.FindOneAndUpdate(ctx, bson.M{"name": name}, update, opts).Decode(&t)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert tag %q: %w", name, err)
	}
	return &t, nil
}

func (r *MongoRepository) IncreaseQuestionCount(ctx context.Context, id primitive.ObjectID, delta int) (bool, error) {
	clamped, err := r.counters.IncClamped(ctx, id, models.FieldQuestionCount, delta)
	if errors.Is(err, counter.ErrNotFound) {
		return false, ErrNotFound
	}
	return clamped, err
}

func (r *MongoRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var list []models.Tag
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	found := make(map[primitive.ObjectID]models.Tag, len(list))
	for _, t := range list {
		found[t.ID] = t
	}
	return orderByIDs(ids, found), nil
}

func (r *MongoRepository) List(ctx context.Context, opts pagination.Options) (pagination.Page[models.Tag], error) {
	opts = opts.Normalize()
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return pagination.Page[models.Tag]{}, err
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: models.FieldQuestionCount, Value: -1}, {Key: "name", Value: 1}}).
		SetSkip(int64(opts.Skip())).
		SetLimit(int64(opts.Limit))
	cur, err := r.col.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return pagination.Page[models.Tag]{}, err
	}
	var list []models.Tag
	if err := cur.All(ctx, &list); err != nil {
		return pagination.Page[models.Tag]{}, err
	}
	return pagination.NewPage(list, total, opts), nil
}

func (r *MongoRepository) SetQuestionCount(ctx context.Context, id primitive.ObjectID, count int) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{models.FieldQuestionCount: count, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) AllIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out, nil
}
