package interactions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/askly/askly/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repository stores interaction records. Records are only appended and bulk removed.
type Repository interface {
	Create(ctx context.Context, in *models.Interaction) (*models.Interaction, error)
	DeleteByQuestionIDs(ctx context.Context, questionIDs []primitive.ObjectID) (int64, error)
	CountByQuestion(ctx context.Context, questionID primitive.ObjectID) (int64, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, in *models.Interaction) (*models.Interaction, error) {
	if in.ID.IsZero() {
		in.ID = primitive.NewObjectID()
	}
	in.CreatedAt = time.Now().UTC()
	if _, err := r.col.InsertOne(ctx, in); err != nil {
		return nil, fmt.Errorf("insert interaction: %w", err)
	}
	return in, nil
}

func (r *MongoRepository) DeleteByQuestionIDs(ctx context.Context, questionIDs []primitive.ObjectID) (int64, error) {
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

// MemoryRepository is the in-memory twin of MongoRepository.
type MemoryRepository struct {
	mu    sync.Mutex
	store map[primitive.ObjectID]models.Interaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[primitive.ObjectID]models.Interaction)}
}

func (m *MemoryRepository) Create(ctx context.Context, in *models.Interaction) (*models.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.ID.IsZero() {
		in.ID = primitive.NewObjectID()
	}
	in.CreatedAt = time.Now().UTC()
	m.store[in.ID] = *in
	return in, nil
}

func (m *MemoryRepository) DeleteByQuestionIDs(ctx context.Context, questionIDs []primitive.ObjectID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, in := range m.store {
		if models.ContainsID(questionIDs, in.QuestionID) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) CountByQuestion(ctx context.Context, questionID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, in := range m.store {
		if in.QuestionID == questionID {
			n++
		}
	}
	return n, nil
}
