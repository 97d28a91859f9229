package tags

import (
	"context"
	"errors"
	"fmt"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"github.com/askly/askly/backend/go-services/pkg/collections"
	"github.com/askly/askly/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Manager resolves submitted tag names to stable tag ids and keeps questionCount in
// step with the questions that reference each tag.
type Manager struct {
	repo Repository
	log  *logger.Logger
}

func NewManager(repo Repository) *Manager {
	return &Manager{repo: repo, log: logger.Named("tags")}
}

// CreateTags resolves names to tags in first-occurrence order, creating missing tags.
// Every distinct name counts exactly one new question association. On failure the
// increments already applied are released again, so no association is left behind.
func (m *Manager) CreateTags(ctx context.Context, names []string) ([]models.Tag, error) {
	normalized := NormalizeNames(names)
	out := make([]models.Tag, 0, len(normalized))
	for _, name := range normalized {
		t, err := m.repo.UpsertIncrement(ctx, name)
		if err != nil {
			if len(out) > 0 {
				if rerr := m.ReleaseTags(context.WithoutCancel(ctx), IDs(out)); rerr != nil {
					m.log.Warnf("create tags aborted after %d of %d and rollback failed: %v", len(out), len(normalized), rerr)
				}
			}
			return nil, fmt.Errorf("create tag %q: %w", name, err)
		}
		out = append(out, *t)
	}
	return out, nil
}

// ReleaseTags removes one question association from each distinct tag.
// Every id is attempted; failures are joined into the returned error.
func (m *Manager) ReleaseTags(ctx context.Context, ids []primitive.ObjectID) error {
	var errs []error
	for _, id := range collections.Unique(ids) {
		if _, err := m.repo.IncreaseQuestionCount(ctx, id, -1); err != nil {
			errs = append(errs, fmt.Errorf("release tag %s: %w", id.Hex(), err))
		}
	}
	return errors.Join(errs...)
}

// IncreaseQuestionCount applies delta to a tag's questionCount. Negative results are
// clamped to zero and reported as drift, not as an error.
func (m *Manager) IncreaseQuestionCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	_, err := m.repo.IncreaseQuestionCount(ctx, id, delta)
	return err
}

// FindByIDs populates tag references in the given order.
func (m *Manager) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error) {
	return m.repo.FindByIDs(ctx, ids)
}

// List returns tags by popularity.
func (m *Manager) List(ctx context.Context, opts pagination.Options) (pagination.Page[models.Tag], error) {
	return m.repo.List(ctx, opts)
}

// IDs extracts tag ids preserving order.
func IDs(list []models.Tag) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	return out
}
