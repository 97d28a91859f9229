package repository

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

// MongoRepo implements Repository over the "questions" collection.
type MongoRepo struct {
	col      *mongo.Collection
	counters *counter.Store
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col, counters: counter.NewStore(col)}
}

func (m *MongoRepo) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	now := time.Now().UTC()
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	if q.TagIDs == nil {
		q.TagIDs = []primitive.ObjectID{}
	}
	q.CreatedAt = now
	q.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, q); err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (m *MongoRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error) {
	var q models.Question
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (m *MongoRepo) Update(ctx context.Context, id primitive.ObjectID, upd models.QuestionUpdate) (*models.Question, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Content != nil {
		set["content"] = *upd.Content
	}
	if upd.TagIDs != nil {
		set["tagIds"] = upd.TagIDs
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var q models.Question
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&q)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (m *MongoRepo) Inc(ctx context.Context, id primitive.ObjectID, deltas map[string]int) error {
	err := m.counters.Inc(ctx, id, deltas)
	if errors.Is(err, counter.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (m *MongoRepo) FindMany(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	cur, err := m.col.Find(ctx, filterDoc(filter))
	if err != nil {
		return nil, err
	}
	out := []models.Question{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) List(ctx context.Context, filter models.QuestionFilter, opts pagination.Options) (pagination.Page[models.Question], error) {
	opts = opts.Normalize()
	doc := filterDoc(filter)
	total, err := m.col.CountDocuments(ctx, doc)
	if err != nil {
		return pagination.Page[models.Question]{}, err
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(opts.Skip())).
		SetLimit(int64(opts.Limit))
	cur, err := m.col.Find(ctx, doc, findOpts)
	if err != nil {
		return pagination.Page[models.Question]{}, err
	}
	var items []models.Question
	if err := cur.All(ctx, &items); err != nil {
		return pagination.Page[models.Question]{}, err
	}
	return pagination.NewPage(items, total, opts), nil
}

func (m *MongoRepo) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := m.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoRepo) CountTagRefs(ctx context.Context) (map[primitive.ObjectID]int, error) {
	return m.countGrouped(ctx, mongo.Pipeline{
		{{Key: "$unwind", Value: "$tagIds"}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$tagIds"}, {Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
}

func (m *MongoRepo) CountByAuthor(ctx context.Context) (map[primitive.ObjectID]int, error) {
	return m.countGrouped(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$authorId"}, {Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
}

func (m *MongoRepo) countGrouped(ctx context.Context, pipeline mongo.Pipeline) (map[primitive.ObjectID]int, error) {
	cur, err := m.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
		N  int                `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]int, len(rows))
	for _, r := range rows {
		out[r.ID] = r.N
	}
	return out, nil
}
