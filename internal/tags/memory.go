package tags

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/askly/askly/backend/go-services/internal/counter"
	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is an in-memory Repository used for unit tests and local runs
// without MongoDB.
type MemoryRepository struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]*models.Tag
	byName map[string]primitive.ObjectID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[primitive.ObjectID]*models.Tag),
		byName: make(map[string]primitive.ObjectID),
	}
}

func (m *MemoryRepository) UpsertIncrement(ctx context.Context, name string) (*models.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if id, ok := m.byName[name]; ok {
		t := m.byID[id]
		t.QuestionCount++
		t.UpdatedAt = now
		cp := *t
		return &cp, nil
	}
	t := &models.Tag{ID: primitive.NewObjectID(), Name: name, QuestionCount: 1, CreatedAt: now, UpdatedAt: now}
	m.byID[t.ID] = t
	m.byName[name] = t.ID
	cp := *t
	return &cp, nil
}

func (m *MemoryRepository) IncreaseQuestionCount(ctx context.Context, id primitive.ObjectID, delta int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	before := t.QuestionCount
	next, clamped := counter.Clamp(before, delta)
	t.QuestionCount = next
	t.UpdatedAt = time.Now().UTC()
	if clamped {
		counter.ReportDrift("tags", id, models.FieldQuestionCount, before, delta)
	}
	return clamped, nil
}

func (m *MemoryRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[primitive.ObjectID]models.Tag, len(ids))
	for _, id := range ids {
		if t, ok := m.byID[id]; ok {
			found[id] = *t
		}
	}
	return orderByIDs(ids, found), nil
}

func (m *MemoryRepository) List(ctx context.Context, opts pagination.Options) (pagination.Page[models.Tag], error) {
	m.mu.Lock()
	all := make([]models.Tag, 0, len(m.byID))
	for _, t := range m.byID {
		all = append(all, *t)
	}
	m.mu.Unlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].QuestionCount != all[j].QuestionCount {
			return all[i].QuestionCount > all[j].QuestionCount
		}
		return all[i].Name < all[j].Name
	})
	return pagination.Slice(all, opts), nil
}

func (m *MemoryRepository) SetQuestionCount(ctx context.Context, id primitive.ObjectID, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	t.QuestionCount = count
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepository) AllIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]primitive.ObjectID, 0, len(m.byID))
	for id := range m.byID {
		out = append(out, id)
	}
	return out, nil
}

// GetByName returns a copy of the tag with the given normalized name.
func (m *MemoryRepository) GetByName(name string) (*models.Tag, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	cp := *m.byID[id]
	return &cp, true
}

// Len returns the number of stored tags.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}
