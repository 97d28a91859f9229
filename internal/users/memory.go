package users

import (
	"context"
	"sync"
	"time"

	"github.com/askly/askly/backend/go-services/internal/counter"
	"github.com/askly/askly/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryUserRepository is an in-memory UserRepository with the same set semantics as
// $addToSet / $pull.
type MemoryUserRepository struct {
	mu    sync.Mutex
	store map[primitive.ObjectID]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{store: make(map[primitive.ObjectID]*models.User)}
}

func (m *MemoryUserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := clone(u)
	m.store[u.ID] = cp
	return clone(cp), nil
}

func (m *MemoryUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(u), nil
}

func (m *MemoryUserRepository) UpdateVoteSets(ctx context.Context, userID, questionID primitive.ObjectID, add models.VoteSet, remove ...models.VoteSet) error {
	return m.mutate(ctx, userID, func(u *models.User) {
		for _, vs := range remove {
			if vs != models.VoteSetNone {
				*voteSet(u, vs) = pull(*voteSet(u, vs), questionID)
			}
		}
		if add != models.VoteSetNone {
			*voteSet(u, add) = addToSet(*voteSet(u, add), questionID)
		}
	})
}

func (m *MemoryUserRepository) UpdateSaved(ctx context.Context, userID, questionID primitive.ObjectID, save bool) error {
	return m.mutate(ctx, userID, func(u *models.User) {
		if save {
			u.SavedQuestionIDs = addToSet(u.SavedQuestionIDs, questionID)
		} else {
			u.SavedQuestionIDs = pull(u.SavedQuestionIDs, questionID)
		}
	})
}

func (m *MemoryUserRepository) IncreaseReputation(ctx context.Context, id primitive.ObjectID, amount int) error {
	return m.mutate(ctx, id, func(u *models.User) { u.Reputation += amount })
}

func (m *MemoryUserRepository) IncreaseQuestionsCount(ctx context.Context, id primitive.ObjectID, delta int) (bool, error) {
	var clamped bool
	err := m.mutate(ctx, id, func(u *models.User) {
		before := u.QuestionsCount
		if delta > 0 {
			u.QuestionsCount += delta
			return
		}
		u.QuestionsCount, clamped = counter.Clamp(before, delta)
		if clamped {
			counter.ReportDrift("users", id, models.FieldQuestionsCount, before, delta)
		}
	})
	return clamped, err
}

func (m *MemoryUserRepository) PullQuestionRefs(ctx context.Context, questionIDs []primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		for _, q := range questionIDs {
			u.UpvoteQuestionIDs = pull(u.UpvoteQuestionIDs, q)
			u.DownvoteQuestionIDs = pull(u.DownvoteQuestionIDs, q)
			u.SavedQuestionIDs = pull(u.SavedQuestionIDs, q)
		}
	}
	return nil
}

func (m *MemoryUserRepository) SetQuestionsCount(ctx context.Context, id primitive.ObjectID, count int) error {
	return m.mutate(ctx, id, func(u *models.User) { u.QuestionsCount = count })
}

func (m *MemoryUserRepository) AllIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]primitive.ObjectID, 0, len(m.store))
	for id := range m.store {
		out = append(out, id)
	}
	return out, nil
}

func (m *MemoryUserRepository) mutate(ctx context.Context, id primitive.ObjectID, fn func(u *models.User)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func voteSet(u *models.User, s models.VoteSet) *[]primitive.ObjectID {
	if s == models.VoteSetDownvote {
		return &u.DownvoteQuestionIDs
	}
	return &u.UpvoteQuestionIDs
}

func addToSet(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if models.ContainsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

func pull(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func clone(u *models.User) *models.User {
	cp := *u
	cp.UpvoteQuestionIDs = append([]primitive.ObjectID{}, u.UpvoteQuestionIDs...)
	cp.DownvoteQuestionIDs = append([]primitive.ObjectID{}, u.DownvoteQuestionIDs...)
	cp.SavedQuestionIDs = append([]primitive.ObjectID{}, u.SavedQuestionIDs...)
	return &cp
}
