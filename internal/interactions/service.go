// Package interactions records the audit trail of question and answer creation.
package interactions

import (
	"context"

	"github.com/askly/askly/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateQuestion records that q's author asked q.
func (s *Service) CreateQuestion(ctx context.Context, q *models.Question) error {
	_, err := s.repo.Create(ctx, &models.Interaction{
		UserID:     q.AuthorID,
		Action:     models.ActionAskQuestion,
		QuestionID: q.ID,
		TagIDs:     append([]primitive.ObjectID(nil), q.TagIDs...),
	})
	return err
}

// CreateAnswer records that a's author answered a question carrying tagIDs.
func (s *Service) CreateAnswer(ctx context.Context, a *models.Answer, tagIDs []primitive.ObjectID) error {
	answerID := a.ID
	_, err := s.repo.Create(ctx, &models.Interaction{
		UserID:     a.AuthorID,
		Action:     models.ActionAnswer,
		QuestionID: a.QuestionID,
		AnswerID:   &answerID,
		TagIDs:     append([]primitive.ObjectID(nil), tagIDs...),
	})
	return err
}

// BulkDeleteByQuestionIDs removes every interaction that references one of questionIDs.
func (s *Service) BulkDeleteByQuestionIDs(ctx context.Context, questionIDs []primitive.ObjectID) (int64, error) {
	return s.repo.DeleteByQuestionIDs(ctx, questionIDs)
}

func (s *Service) CountByQuestion(ctx context.Context, questionID primitive.ObjectID) (int64, error) {
	return s.repo.CountByQuestion(ctx, questionID)
}
