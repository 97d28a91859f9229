package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory repository used for unit tests and for running the
// service without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[primitive.ObjectID]*models.Question
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[primitive.ObjectID]*models.Question)}
}

func (m *MemoryRepo) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	q.CreatedAt = time.Now().UTC()
	q.UpdatedAt = q.CreatedAt
	m.store[q.ID] = clone(q)
	return clone(q), nil
}

func (m *MemoryRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if q, ok := m.store[id]; ok {
		return clone(q), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) Update(ctx context.Context, id primitive.ObjectID, upd models.QuestionUpdate) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		q.Title = *upd.Title
	}
	if upd.Content != nil {
		q.Content = *upd.Content
	}
	if upd.TagIDs != nil {
		q.TagIDs = append([]primitive.ObjectID{}, upd.TagIDs...)
	}
	q.UpdatedAt = time.Now().UTC()
	return clone(q), nil
}

func (m *MemoryRepo) Inc(ctx context.Context, id primitive.ObjectID, deltas map[string]int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	for field, d := range deltas {
		switch field {
		case models.FieldUpvoteCount:
			q.UpvoteCount += d
		case models.FieldDownvoteCount:
			q.DownvoteCount += d
		case models.FieldAnswerCount:
			q.AnswerCount += d
		case models.FieldViews:
			q.Views += d
		}
	}
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) FindMany(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(filter), nil
}

func (m *MemoryRepo) List(ctx context.Context, filter models.QuestionFilter, opts pagination.Options) (pagination.Page[models.Question], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pagination.Slice(m.sorted(filter), opts), nil
}

func (m *MemoryRepo) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.store[id]; ok {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepo) CountTagRefs(ctx context.Context) (map[primitive.ObjectID]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[primitive.ObjectID]int{}
	for _, q := range m.store {
		for _, t := range q.TagIDs {
			out[t]++
		}
	}
	return out, nil
}

func (m *MemoryRepo) CountByAuthor(ctx context.Context) (map[primitive.ObjectID]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[primitive.ObjectID]int{}
	for _, q := range m.store {
		out[q.AuthorID]++
	}
	return out, nil
}

// sorted returns matching questions newest first. Callers hold the lock.
func (m *MemoryRepo) sorted(filter models.QuestionFilter) []models.Question {
	out := []models.Question{}
	for _, q := range m.store {
		if filter.Matches(q) {
			out = append(out, *clone(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func clone(q *models.Question) *models.Question {
	cp := *q
	cp.TagIDs = append([]primitive.ObjectID{}, q.TagIDs...)
	return &cp
}
