// Package answers stores answers and keeps the parent question's answerCount and the
// interaction trail in step with answer creation.
package answers

import (
	"context"
	"errors"
	"strings"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"github.com/askly/askly/backend/go-services/internal/tasks"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidInput = errors.New("answer content is required")

// Questions is the question capability answers depend on.
type Questions interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error)
	IncreaseAnswerCount(ctx context.Context, id primitive.ObjectID) error
}

// Recorder appends answer interactions.
type Recorder interface {
	CreateAnswer(ctx context.Context, a *models.Answer, tagIDs []primitive.ObjectID) error
}

type Dispatcher interface {
	Go(ctx context.Context, name string, fn tasks.Func)
}

type Service struct {
	repo         Repository
	questions    Questions
	interactions Recorder
	tasks        Dispatcher
}

func NewService(repo Repository, questions Questions, interactions Recorder, d Dispatcher) *Service {
	return &Service{repo: repo, questions: questions, interactions: interactions, tasks: d}
}

// Create stores an answer on an existing question. The answerCount bump and the
// interaction record are best-effort.
func (s *Service) Create(ctx context.Context, questionID, authorID primitive.ObjectID, content string) (*models.Answer, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidInput
	}
	q, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.Create(ctx, &models.Answer{QuestionID: q.ID, AuthorID: authorID, Content: content})
	if err != nil {
		return nil, err
	}
	s.tasks.Go(ctx, "answer_count_increment", func(ctx context.Context) error {
		return s.questions.IncreaseAnswerCount(ctx, q.ID)
	})
	s.tasks.Go(ctx, "answer_interaction", func(ctx context.Context) error {
		return s.interactions.CreateAnswer(ctx, a, q.TagIDs)
	})
	return a, nil
}

func (s *Service) ListByQuestion(ctx context.Context, questionID primitive.ObjectID, opts pagination.Options) (pagination.Page[models.Answer], error) {
	return s.repo.ListByQuestion(ctx, questionID, opts)
}

func (s *Service) DistinctQuestionIDs(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.repo.DistinctQuestionIDs(ctx, authorID)
}

// BulkDeleteByQuestionIDs removes every answer of the given questions.
func (s *Service) BulkDeleteByQuestionIDs(ctx context.Context, questionIDs []primitive.ObjectID) (int64, error) {
	return s.repo.BulkDeleteByQuestionIDs(ctx, questionIDs)
}

func (s *Service) CountByQuestion(ctx context.Context, questionID primitive.ObjectID) (int64, error) {
	return s.repo.CountByQuestion(ctx, questionID)
}
