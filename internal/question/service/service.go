// Package service is the question orchestrator: it composes tags, votes, reputation and
// the cascade into the question workflows, deciding which writes are awaited and which
// are best-effort.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/askly/askly/backend/go-services/internal/cascade"
	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"github.com/askly/askly/backend/go-services/internal/question/repository"
	"github.com/askly/askly/backend/go-services/internal/tags"
	"github.com/askly/askly/backend/go-services/internal/tasks"
	"github.com/askly/askly/backend/go-services/internal/users"
	"github.com/askly/askly/backend/go-services/internal/votes"
	"github.com/askly/askly/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("only the author may modify this question")
)

// MaxTags is the most tags one question may carry.
const MaxTags = 5

// TagService resolves and releases tags.
type TagService interface {
	CreateTags(ctx context.Context, names []string) ([]models.Tag, error)
	ReleaseTags(ctx context.Context, ids []primitive.ObjectID) error
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error)
}

// UserStore is the part of the user service the orchestrator writes through.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateVoteSets(ctx context.Context, userID, questionID primitive.ObjectID, add models.VoteSet, remove ...models.VoteSet) error
	UpdateSaved(ctx context.Context, userID, questionID primitive.ObjectID, save bool) error
	IncreaseQuestionsCount(ctx context.Context, id primitive.ObjectID, delta int) error
}

type InteractionRecorder interface {
	CreateQuestion(ctx context.Context, q *models.Question) error
}

type AnswerIndex interface {
	DistinctQuestionIDs(ctx context.Context, authorID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type Awarder interface {
	AwardQuestionUpvote(ctx context.Context, authorID primitive.ObjectID)
}

type BulkDeleter interface {
	Delete(ctx context.Context, filter models.QuestionFilter) (cascade.Result, error)
}

type Dispatcher interface {
	Go(ctx context.Context, name string, fn tasks.Func)
}

// Deps wires the orchestrator. Locker may be nil, which leaves votes unserialized.
type Deps struct {
	Questions    repository.Repository
	Tags         TagService
	Users        UserStore
	Interactions InteractionRecorder
	Answers      AnswerIndex
	Reputation   Awarder
	Cascade      BulkDeleter
	Tasks        Dispatcher
	Locker       votes.Locker
}

type Service struct {
	repo         repository.Repository
	tags         TagService
	users        UserStore
	interactions InteractionRecorder
	answers      AnswerIndex
	reputation   Awarder
	cascade      BulkDeleter
	tasks        Dispatcher
	locker       votes.Locker
	log          *logger.Logger
}

func New(d Deps) *Service {
	locker := d.Locker
	if locker == nil {
		locker = votes.NoopLocker{}
	}
	return &Service{
		repo:         d.Questions,
		tags:         d.Tags,
		users:        d.Users,
		interactions: d.Interactions,
		answers:      d.Answers,
		reputation:   d.Reputation,
		cascade:      d.Cascade,
		tasks:        d.Tasks,
		locker:       locker,
		log:          logger.Named("question"),
	}
}

// CreateInput is a new question as submitted.
type CreateInput struct {
	Title   string
	Content string
	Tags    []string
}

// UpdateInput is a partial edit. A nil Tags leaves the tag set unchanged.
type UpdateInput struct {
	Title   *string
	Content *string
	Tags    []string
}

// Create resolves tags, stores the question and then records the interaction and
// bumps the author's questionsCount in the background.
func (s *Service) Create(ctx context.Context, authorID primitive.ObjectID, in CreateInput) (*models.QuestionWithTags, error) {
	title, content := strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}
	if len(tags.NormalizeNames(in.Tags)) > MaxTags {
		return nil, fmt.Errorf("%w: at most %d tags", ErrInvalidInput, MaxTags)
	}
	if _, err := s.users.FindByID(ctx, authorID); err != nil {
		return nil, s.mapErr(err, "user", authorID)
	}

	tagList, err := s.tags.CreateTags(ctx, in.Tags)
	if err != nil {
		return nil, err
	}
	tagIDs := idsOf(tagList)
	q, err := s.repo.Create(ctx, &models.Question{
		AuthorID: authorID,
		Title:    title,
		Content:  content,
		TagIDs:   tagIDs,
	})
	if err != nil {
		// the tags were counted for a question that does not exist
		s.releaseLater(ctx, tagIDs)
		return nil, err
	}

	created := *q
	s.tasks.Go(ctx, "question_interaction", func(ctx context.Context) error {
		return s.interactions.CreateQuestion(ctx, &created)
	})
	s.tasks.Go(ctx, "author_questions_count", func(ctx context.Context) error {
		return s.users.IncreaseQuestionsCount(ctx, authorID, 1)
	})
	return &models.QuestionWithTags{Question: *q, Tags: tagList}, nil
}

// Update edits a question. Tags are diffed by normalized name so unchanged tags keep
// their ids and counts. New tags are created before the write; removed tags are
// released best-effort only after it, and new ones are released again if it fails.
func (s *Service) Update(ctx context.Context, actorID, id primitive.ObjectID, in UpdateInput) (*models.QuestionWithTags, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		return nil, fmt.Errorf("%w: content must not be empty", ErrInvalidInput)
	}
	if len(tags.NormalizeNames(in.Tags)) > MaxTags {
		return nil, fmt.Errorf("%w: at most %d tags", ErrInvalidInput, MaxTags)
	}
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapErr(err, "question", id)
	}
	if q.AuthorID != actorID {
		return nil, ErrForbidden
	}

	upd := models.QuestionUpdate{Title: trimmed(in.Title), Content: trimmed(in.Content)}
	var rt *retagging
	if in.Tags != nil {
		if rt, err = s.retag(ctx, q, in.Tags); err != nil {
			return nil, err
		}
		upd.TagIDs = rt.ids
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if rt != nil {
			s.releaseLater(ctx, rt.created)
		}
		return nil, s.mapErr(err, "question", id)
	}
	if rt != nil {
		s.releaseLater(ctx, rt.removed)
	}
	return s.populate(ctx, updated)
}

// Vote applies action for userID on questionID. The user's state is read once; the
// question counters and the user's vote sets are then written concurrently and both
// awaited. An accepted upvote credits the author in the background.
func (s *Service) Vote(ctx context.Context, userID, questionID primitive.ObjectID, action votes.Action) (votes.Effect, error) {
	unlock, err := s.locker.Lock(ctx, votes.LockKey(userID, questionID))
	if err != nil {
		observeVote(action, err)
		return votes.Effect{}, err
	}
	defer unlock()

	eff, err := s.vote(ctx, userID, questionID, action)
	observeVote(action, err)
	return eff, err
}

func (s *Service) vote(ctx context.Context, userID, questionID primitive.ObjectID, action votes.Action) (votes.Effect, error) {
	q, err := s.repo.FindByID(ctx, questionID)
	if err != nil {
		return votes.Effect{}, s.mapErr(err, "question", questionID)
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return votes.Effect{}, s.mapErr(err, "user", userID)
	}
	eff, err := votes.TransitionFor(u, questionID, action)
	if err != nil {
		return votes.Effect{}, err
	}

	if err := s.applyVote(ctx, userID, questionID, eff); err != nil {
		return votes.Effect{}, err
	}
	if eff.AwardsAuthor() {
		s.reputation.AwardQuestionUpvote(ctx, q.AuthorID)
	}
	return eff, nil
}

// HandleSave toggles questionID in the user's saved list and reports the new state.
func (s *Service) HandleSave(ctx context.Context, userID, questionID primitive.ObjectID) (bool, error) {
	if _, err := s.repo.FindByID(ctx, questionID); err != nil {
		return false, s.mapErr(err, "question", questionID)
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, s.mapErr(err, "user", userID)
	}
	save := !models.ContainsID(u.SavedQuestionIDs, questionID)
	if err := s.users.UpdateSaved(ctx, userID, questionID, save); err != nil {
		return false, s.mapErr(err, "user", userID)
	}
	return save, nil
}

func (s *Service) IncreaseAnswerCount(ctx context.Context, id primitive.ObjectID) error {
	return s.mapErr(s.repo.Inc(ctx, id, map[string]int{models.FieldAnswerCount: 1}), "question", id)
}

func (s *Service) IncreaseView(ctx context.Context, id primitive.ObjectID) error {
	return s.mapErr(s.repo.Inc(ctx, id, map[string]int{models.FieldViews: 1}), "question", id)
}

// FindByID returns the bare question document.
func (s *Service) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapErr(err, "question", id)
	}
	return q, nil
}

// Get returns the question with its tags populated.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.QuestionWithTags, error) {
	q, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, q)
}

func (s *Service) List(ctx context.Context, filter models.QuestionFilter, opts pagination.Options) (pagination.Page[models.QuestionWithTags], error) {
	page, err := s.repo.List(ctx, filter, opts)
	if err != nil {
		return pagination.Page[models.QuestionWithTags]{}, err
	}
	return s.populatePage(ctx, page)
}

// ListAnsweredBy pages the questions userID has answered.
func (s *Service) ListAnsweredBy(ctx context.Context, userID primitive.ObjectID, opts pagination.Options) (pagination.Page[models.QuestionWithTags], error) {
	ids, err := s.answers.DistinctQuestionIDs(ctx, userID)
	if err != nil {
		return pagination.Page[models.QuestionWithTags]{}, err
	}
	if len(ids) == 0 {
		return pagination.NewPage[models.QuestionWithTags](nil, 0, opts), nil
	}
	return s.List(ctx, models.QuestionFilter{IDs: ids}, opts)
}

// BulkDelete removes every question matching filter together with its answers and
// interactions, backing out tag and author counters.
func (s *Service) BulkDelete(ctx context.Context, filter models.QuestionFilter) (cascade.Result, error) {
	return s.cascade.Delete(ctx, filter)
}

// DeleteByID deletes one question owned by actorID through the cascade.
func (s *Service) DeleteByID(ctx context.Context, actorID, id primitive.ObjectID) (cascade.Result, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return cascade.Result{}, s.mapErr(err, "question", id)
	}
	if q.AuthorID != actorID {
		return cascade.Result{}, ErrForbidden
	}
	return s.cascade.Delete(ctx, models.QuestionFilter{IDs: []primitive.ObjectID{id}})
}

func (s *Service) mapErr(err error, kind string, id primitive.ObjectID) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, users.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id.Hex())
	}
	return err
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func idsOf(list []models.Tag) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	return out
}
