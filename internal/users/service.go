package users

import (
	"context"
	"errors"
	"strings"

	"github.com/askly/askly/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidUser = errors.New("user name is required")

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// Register creates a user with empty counters and sets.
func (s *Service) Register(ctx context.Context, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidUser
	}
	return s.repo.Create(ctx, &models.User{Name: name, Email: strings.TrimSpace(email)})
}

func (s *Service) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateVoteSets moves questionID between the user's vote sets in one update.
func (s *Service) UpdateVoteSets(ctx context.Context, userID, questionID primitive.ObjectID, add models.VoteSet, remove ...models.VoteSet) error {
	return s.repo.UpdateVoteSets(ctx, userID, questionID, add, remove...)
}

// UpdateSaved toggles membership of questionID in the saved list.
func (s *Service) UpdateSaved(ctx context.Context, userID, questionID primitive.ObjectID, save bool) error {
	return s.repo.UpdateSaved(ctx, userID, questionID, save)
}

func (s *Service) IncreaseReputation(ctx context.Context, id primitive.ObjectID, amount int) error {
	return s.repo.IncreaseReputation(ctx, id, amount)
}

// IncreaseQuestionsCount applies delta to the author's questionsCount; decrements below
// zero are clamped and reported as drift.
func (s *Service) IncreaseQuestionsCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	_, err := s.repo.IncreaseQuestionsCount(ctx, id, delta)
	return err
}

func (s *Service) PullQuestionRefs(ctx context.Context, questionIDs []primitive.ObjectID) error {
	return s.repo.PullQuestionRefs(ctx, questionIDs)
}
