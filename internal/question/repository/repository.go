package repository

import (
	"context"
	"errors"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("question not found")
)

// Repository persists questions. Counter fields are only changed through Inc.
type Repository interface {
	Create(ctx context.Context, q *models.Question) (*models.Question, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error)
	// Update applies the non-nil fields of upd and returns the updated question.
	Update(ctx context.Context, id primitive.ObjectID, upd models.QuestionUpdate) (*models.Question, error)
	// Inc atomically adds each delta to its counter field.
	Inc(ctx context.Context, id primitive.ObjectID, deltas map[string]int) error
	FindMany(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
	// List returns matching questions newest first.
	List(ctx context.Context, filter models.QuestionFilter, opts pagination.Options) (pagination.Page[models.Question], error)
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	// CountTagRefs and CountByAuthor recompute the denormalized tag and author counters.
	CountTagRefs(ctx context.Context) (map[primitive.ObjectID]int, error)
	CountByAuthor(ctx context.Context) (map[primitive.ObjectID]int, error)
}

func filterDoc(f models.QuestionFilter) bson.M {
	doc := bson.M{}
	if f.IDs != nil {
		doc["_id"] = bson.M{"$in": f.IDs}
	}
	if f.AuthorID != nil {
		doc["authorId"] = *f.AuthorID
	}
	if f.TagID != nil {
		doc["tagIds"] = *f.TagID
	}
	return doc
}
