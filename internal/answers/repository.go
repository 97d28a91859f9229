package answers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("answer not found")

type Repository interface {
	Create(ctx context.Context, a *models.Answer) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID primitive.ObjectID, opts pagination.Options) (pagination.Page[models.Answer], error)
	// DistinctQuestionIDs returns the ids of questions authorID has answered.
	DistinctQuestionIDs(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error)
	BulkDeleteByQuestionIDs(ctx context.Context, questionIDs []primitive.ObjectID) (int64, error)
	CountByQuestion(ctx context.Context, questionID primitive.ObjectID) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, a *models.Answer) (*models.Answer, error) {
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, a); err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	return a, nil
}

func (r *MongoRepository) ListByQuestion(ctx context.Context, questionID primitive.ObjectID, opts pagination.Options) (pagination.Page[models.Answer], error) {
	opts = opts.Normalize()
	filter := bson.M{"questionId": questionID}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return pagination.Page[models.Answer]{}, err
	}
	find := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetSkip(int64(opts.Skip())).
		SetLimit(int64(opts.Limit))
	cur, err := r.col.Find(ctx, filter, find)
	if err != nil {
		return pagination.Page[models.Answer]{}, err
	}
	var items []models.Answer
	if err := cur.All(ctx, &items); err != nil {
		return pagination.Page[models.Answer]{}, err
	}
	return pagination.NewPage(items, total, opts), nil
}

func (r *MongoRepository) DistinctQuestionIDs(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	vals, err := r.col.Distinct(ctx, "questionId", bson.M{"authorId": authorID})
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(vals))
	for _, v := range vals {
		if id, ok := v.(primitive.ObjectID); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *MongoRepository) BulkDeleteByQuestionIDs(ctx context.Context, questionIDs []primitive.ObjectID) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, nil
	}
	res, err := r.col.DeleteMany(ctx, bson.M{"questionId": bson.M{"$in": questionIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) CountByQuestion(ctx context.Context, questionID primitive.ObjectID) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"questionId": questionID})
}

// MemoryRepository is an in-memory Repository.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[primitive.ObjectID]models.Answer
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[primitive.ObjectID]models.Answer)}
}

func (m *MemoryRepository) Create(ctx context.Context, a *models.Answer) (*models.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	m.store[a.ID] = *a
	return a, nil
}

func (m *MemoryRepository) ListByQuestion(ctx context.Context, questionID primitive.ObjectID, opts pagination.Options) (pagination.Page[models.Answer], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []models.Answer
	for _, a := range m.store {
		if a.QuestionID == questionID {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.Hex() < all[j].ID.Hex()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return pagination.Slice(all, opts), nil
}

func (m *MemoryRepository) DistinctQuestionIDs(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []primitive.ObjectID
	for _, a := range m.store {
		if a.AuthorID == authorID && !models.ContainsID(out, a.QuestionID) {
			out = append(out, a.QuestionID)
		}
	}
	return out, nil
}

func (m *MemoryRepository) BulkDeleteByQuestionIDs(ctx context.Context, questionIDs []primitive.ObjectID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, a := range m.store {
		if models.ContainsID(questionIDs, a.QuestionID) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) CountByQuestion(ctx context.Context, questionID primitive.ObjectID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, a := range m.store {
		if a.QuestionID == questionID {
			n++
		}
	}
	return n, nil
}
