package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/askly/askly/backend/go-services/internal/interactions"
	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/question/repository"
	"github.com/askly/askly/backend/go-services/internal/tags"
	"github.com/askly/askly/backend/go-services/internal/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("store unavailable")

// faults switches individual writes of the harness stores to failing.
type faults struct {
	limitUpserts   atomic.Bool
	upsertBudget   atomic.Int32
	questionWrites atomic.Bool
	interactions   atomic.Bool
	questionsCount atomic.Bool
	reputation     atomic.Bool
}

// allowUpserts lets n more tag upserts succeed; every later one fails.
func (f *faults) allowUpserts(n int32) {
	f.upsertBudget.Store(n)
	f.limitUpserts.Store(true)
}

type faultyTags struct {
	*tags.MemoryRepository
	f *faults
}

func (r *faultyTags) UpsertIncrement(ctx context.Context, name string) (*models.Tag, error) {
	if r.f.limitUpserts.Load() && r.f.upsertBudget.Add(-1) < 0 {
		return nil, errStoreDown
	}
	return r.MemoryRepository.UpsertIncrement(ctx, name)
}

type faultyQuestions struct {
	*repository.MemoryRepo
	f *faults
}

func (r *faultyQuestions) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	if r.f.questionWrites.Load() {
		return nil, errStoreDown
	}
	return r.MemoryRepo.Create(ctx, q)
}

func (r *faultyQuestions) Update(ctx context.Context, id primitive.ObjectID, upd models.QuestionUpdate) (*models.Question, error) {
	if r.f.questionWrites.Load() {
		return nil, errStoreDown
	}
	return r.MemoryRepo.Update(ctx, id, upd)
}

type faultyInteractions struct {
	*interactions.Service
	f *faults
}

func (s *faultyInteractions) CreateQuestion(ctx context.Context, q *models.Question) error {
	if s.f.interactions.Load() {
		return errStoreDown
	}
	return s.Service.CreateQuestion(ctx, q)
}

type faultyUsers struct {
	*users.Service
	f *faults
}

func (s *faultyUsers) IncreaseQuestionsCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	if s.f.questionsCount.Load() {
		return errStoreDown
	}
	return s.Service.IncreaseQuestionsCount(ctx, id, delta)
}

func (s *faultyUsers) IncreaseReputation(ctx context.Context, id primitive.ObjectID, amount int) error {
	if s.f.reputation.Load() {
		return errStoreDown
	}
	return s.Service.IncreaseReputation(ctx, id, amount)
}
