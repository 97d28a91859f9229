package tags

import (
	"context"
	"errors"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("tag not found")

// Repository persists tags. Names passed in are already normalized.
type Repository interface {
	// UpsertIncrement returns the tag named name, creating it when absent, and adds one
	// to its questionCount in the same atomic operation.
	UpsertIncrement(ctx context.Context, name string) (*models.Tag, error)
	// IncreaseQuestionCount adds delta to questionCount, flooring at zero.
	IncreaseQuestionCount(ctx context.Context, id primitive.ObjectID, delta int) (clamped bool, err error)
	// FindByIDs returns the tags for ids in the order of ids; unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error)
	// List returns tags ordered by questionCount descending, then name.
	List(ctx context.Context, opts pagination.Options) (pagination.Page[models.Tag], error)
	// SetQuestionCount overwrites questionCount; used only by drift repair.
	SetQuestionCount(ctx context.Context, id primitive.ObjectID, count int) error
	// AllIDs returns the id of every tag.
	AllIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

func orderByIDs(ids []primitive.ObjectID, found map[primitive.ObjectID]models.Tag) []models.Tag {
	out := make([]models.Tag, 0, len(ids))
	for _, id := range ids {
		if t, ok := found[id]; ok {
			out = append(out, t)
		}
	}
	return out
}
