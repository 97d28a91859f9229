package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/askly/askly/backend/go-services/internal/answers"
	"github.com/askly/askly/backend/go-services/internal/cascade"
	"github.com/askly/askly/backend/go-services/internal/interactions"
	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"github.com/askly/askly/backend/go-services/internal/question/repository"
	"github.com/askly/askly/backend/go-services/internal/reputation"
	"github.com/askly/askly/backend/go-services/internal/tags"
	"github.com/askly/askly/backend/go-services/internal/tasks"
	"github.com/askly/askly/backend/go-services/internal/users"
	"github.com/askly/askly/backend/go-services/internal/votes"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type harness struct {
	svc          *Service
	questions    *repository.MemoryRepo
	tagRepo      *tags.MemoryRepository
	users        *users.Service
	answers      *answers.Service
	interactions *interactions.Service
	tasks        *tasks.Dispatcher
	faults       *faults
}

func newHarness(t *testing.T, locker votes.Locker) *harness {
	t.Helper()
	h := &harness{
		questions: repository.NewMemoryRepo(),
		tagRepo:   tags.NewMemoryRepository(),
		users:     users.NewService(users.NewMemoryUserRepository()),
		tasks:     tasks.NewDispatcher(time.Second),
		faults:    &faults{},
	}
	h.interactions = interactions.NewService(interactions.NewMemoryRepository())
	tagManager := tags.NewManager(&faultyTags{MemoryRepository: h.tagRepo, f: h.faults})
	userStore := &faultyUsers{Service: h.users, f: h.faults}
	answerRepo := answers.NewMemoryRepository()
	deleter := cascade.NewDeleter(cascade.Deps{
		Questions:    h.questions,
		Tags:         tagManager,
		Authors:      h.users,
		Answers:      answerRepo,
		Interactions: h.interactions,
		UserRefs:     h.users,
	})
	h.svc = New(Deps{
		Questions:    &faultyQuestions{MemoryRepo: h.questions, f: h.faults},
		Tags:         tagManager,
		Users:        userStore,
		Interactions: &faultyInteractions{Service: h.interactions, f: h.faults},
		Answers:      answerRepo,
		Reputation:   reputation.NewLedger(userStore, h.tasks, reputation.Values{}),
		Cascade:      deleter,
		Tasks:        h.tasks,
		Locker:       locker,
	})
	h.answers = answers.NewService(answerRepo, h.svc, h.interactions, h.tasks)
	return h
}

func (h *harness) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := h.users.Register(context.Background(), name, "")
	require.NoError(t, err)
	return u
}

func (h *harness) tagCount(t *testing.T, name string) int {
	t.Helper()
	tag, ok := h.tagRepo.GetByName(name)
	require.True(t, ok, "tag %q missing", name)
	return tag.QuestionCount
}

func (h *harness) reload(t *testing.T, id primitive.ObjectID) *models.User {
	t.Helper()
	h.tasks.Wait()
	u, err := h.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestCreate_DedupesTagsAndCountsAuthor(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	author := h.user(t, "author")

	q, err := h.svc.Create(ctx, author.ID, CreateInput{Title: " Channels ", Content: "how?", Tags: []string{"Go", " go ", "concurrency"}})
	require.NoError(t, err)
	require.Equal(t, "Channels", q.Title)
	require.Len(t, q.Tags, 2)
	require.Equal(t, "go", q.Tags[0].Name)
	require.Equal(t, 1, h.tagCount(t, "go"))
	require.Equal(t, 2, h.tagRepo.Len())

	require.Equal(t, 1, h.reload(t, author.ID).QuestionsCount)
	n, err := h.interactions.CountByQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = h.svc.Create(ctx, author.ID, CreateInput{Title: "again", Content: "x", Tags: []string{"GO"}})
	require.NoError(t, err)
	require.Equal(t, 2, h.tagCount(t, "go"))
	require.Equal(t, 2, h.tagRepo.Len())
}

func TestCreate_Validation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	author := h.user(t, "author")

	_, err := h.svc.Create(ctx, author.ID, CreateInput{Title: " ", Content: "x"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.svc.Create(ctx, author.ID, CreateInput{Title: "t", Content: "x", Tags: []string{"a", "b", "c", "d", "e", "f"}})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.svc.Create(ctx, primitive.NewObjectID(), CreateInput{Title: "t", Content: "x"})
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, h.tagRepo.Len())
}

func TestUpdate_RetagKeepsUnchangedTags(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	author := h.user(t, "author")

	q, err := h.svc.Create(ctx, author.ID, CreateInput{Title: "t", Content: "c", Tags: []string{"A", "B"}})
	require.NoError(t, err)
	b := q.Tags[1]

	updated, err := h.svc.Update(ctx, author.ID, q.ID, UpdateInput{Tags: []string{"b", "C", "c"}})
	require.NoError(t, err)
	h.tasks.Wait()

	require.Equal(t, 0, h.tagCount(t, "a"))
	require.Equal(t, 1, h.tagCount(t, "b"))
	require.Equal(t, 1, h.tagCount(t, "c"))
	require.Len(t, updated.Tags, 2)
	require.Equal(t, b.ID, updated.Tags[0].ID)
	require.Equal(t, "c", updated.Tags[1].Name)
	require.Equal(t, "t", updated.Title)

	title := "renamed"
	updated, err = h.svc.Update(ctx, author.ID, q.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.Len(t, updated.Tags, 2)
	require.Equal(t, 1, h.tagCount(t, "b"))

	_, err = h.svc.Update(ctx, primitive.NewObjectID(), q.ID, UpdateInput{Title: &title})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = h.svc.Update(ctx, author.ID, primitive.NewObjectID(), UpdateInput{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVote_UpvoteThenDownvote(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	author, voter := h.user(t, "author"), h.user(t, "voter")
	q, err := h.svc.Create(ctx, author.ID, CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	eff, err := h.svc.Vote(ctx, voter.ID, q.ID, votes.ActionUpvote)
	require.NoError(t, err)
	require.Equal(t, votes.StateUpvoted, eff.To)
	got, _ := h.svc.FindByID(ctx, q.ID)
	require.Equal(t, 1, got.UpvoteCount)
	u := h.reload(t, voter.ID)
	require.Equal(t, []primitive.ObjectID{q.ID}, u.UpvoteQuestionIDs)
	require.Equal(t, reputation.DefaultUpvoteQuestion, h.reload(t, author.ID).Reputation)

	_, err = h.svc.Vote(ctx, voter.ID, q.ID, votes.ActionUpvote)
	require.ErrorIs(t, err, votes.ErrAlreadyUpvoted)

	_, err = h.svc.Vote(ctx, voter.ID, q.ID, votes.ActionDownvote)
	require.NoError(t, err)
	got, _ = h.svc.FindByID(ctx, q.ID)
	require.Equal(t, 0, got.UpvoteCount)
	require.Equal(t, 1, got.DownvoteCount)
	u = h.reload(t, voter.ID)
	require.Empty(t, u.UpvoteQuestionIDs)
	require.Equal(t, []primitive.ObjectID{q.ID}, u.DownvoteQuestionIDs)
	// downvoting takes nothing back
	require.Equal(t, reputation.DefaultUpvoteQuestion, h.reload(t, author.ID).Reputation)

	_, err = h.svc.Vote(ctx, voter.ID, q.ID, votes.ActionUnvote)
	require.NoError(t, err)
	_, err = h.svc.Vote(ctx, voter.ID, q.ID, votes.ActionUnvote)
	require.ErrorIs(t, err, votes.ErrNotVoted)
	got, _ = h.svc.FindByID(ctx, q.ID)
	require.Equal(t, 0, got.UpvoteCount)
	require.Equal(t, 0, got.DownvoteCount)

	_, err = h.svc.Vote(ctx, voter.ID, primitive.NewObjectID(), votes.ActionUpvote)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = h.svc.Vote(ctx, primitive.NewObjectID(), q.ID, votes.ActionUpvote)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVote_LockSerializesSamePair(t *testing.T) {
	h := newHarness(t, votes.NewMemoryLocker(5*time.Second))
	ctx := context.Background()
	author, voter := h.user(t, "author"), h.user(t, "voter")
	q, err := h.svc.Create(ctx, author.ID, CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.svc.Vote(ctx, voter.ID, q.ID, votes.ActionUpvote); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, accepted)
	got, _ := h.svc.FindByID(ctx, q.ID)
	require.Equal(t, 1, got.UpvoteCount)
}

func TestHandleSave_Toggles(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	u := h.user(t, "u")
	q, err := h.svc.Create(ctx, u.ID, CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	saved, err := h.svc.HandleSave(ctx, u.ID, q.ID)
	require.NoError(t, err)
	require.True(t, saved)
	require.Equal(t, []primitive.ObjectID{q.ID}, h.reload(t, u.ID).SavedQuestionIDs)

	saved, err = h.svc.HandleSave(ctx, u.ID, q.ID)
	require.NoError(t, err)
	require.False(t, saved)
	require.Empty(t, h.reload(t, u.ID).SavedQuestionIDs)

	_, err = h.svc.HandleSave(ctx, u.ID, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestViewsAnswersAndListAnsweredBy(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	author, responder := h.user(t, "author"), h.user(t, "responder")
	q1, _ := h.svc.Create(ctx, author.ID, CreateInput{Title: "one", Content: "c", Tags: []string{"go"}})
	_, _ = h.svc.Create(ctx, author.ID, CreateInput{Title: "two", Content: "c"})

	require.NoError(t, h.svc.IncreaseView(ctx, q1.ID))
	require.ErrorIs(t, h.svc.IncreaseView(ctx, primitive.NewObjectID()), ErrNotFound)

	_, err := h.answers.Create(ctx, q1.ID, responder.ID, "answer")
	require.NoError(t, err)
	h.tasks.Wait()

	got, err := h.svc.Get(ctx, q1.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Views)
	require.Equal(t, 1, got.AnswerCount)
	require.Equal(t, "go", got.Tags[0].Name)

	page, err := h.svc.ListAnsweredBy(ctx, responder.ID, pagination.Options{})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	require.Equal(t, q1.ID, page.Items[0].ID)
	require.Len(t, page.Items[0].Tags, 1)

	page, err = h.svc.ListAnsweredBy(ctx, author.ID, pagination.Options{})
	require.NoError(t, err)
	require.Zero(t, page.Total)
	require.NotNil(t, page.Items)

	all, err := h.svc.List(ctx, models.QuestionFilter{}, pagination.Options{Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, all.Total)
}

func TestBulkDelete_BacksOutCountersAndChildren(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	author, other := h.user(t, "author"), h.user(t, "other")

	var ids []primitive.ObjectID
	for i := 0; i < 5; i++ {
		q, err := h.svc.Create(ctx, author.ID, CreateInput{Title: "t", Content: "c", Tags: []string{"shared"}})
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}
	keep, err := h.svc.Create(ctx, other.ID, CreateInput{Title: "keep", Content: "c", Tags: []string{"shared"}})
	require.NoError(t, err)
	_, err = h.answers.Create(ctx, ids[0], other.ID, "a")
	require.NoError(t, err)
	_, err = h.svc.HandleSave(ctx, other.ID, ids[1])
	require.NoError(t, err)
	h.tasks.Wait()
	require.Equal(t, 6, h.tagCount(t, "shared"))

	res, err := h.svc.BulkDelete(ctx, models.QuestionFilter{AuthorID: &author.ID})
	require.NoError(t, err)
	require.NoError(t, res.Drift)
	require.EqualValues(t, 5, res.QuestionsDeleted)
	require.EqualValues(t, 1, res.AnswersDeleted)
	require.EqualValues(t, 6, res.InteractionsDeleted)

	require.Equal(t, 1, h.tagCount(t, "shared"))
	require.Equal(t, 0, h.reload(t, author.ID).QuestionsCount)
	require.Empty(t, h.reload(t, other.ID).SavedQuestionIDs)
	for _, id := range ids {
		_, err := h.svc.FindByID(ctx, id)
		require.ErrorIs(t, err, ErrNotFound)
	}
	_, err = h.svc.FindByID(ctx, keep.ID)
	require.NoError(t, err)
}

func TestDeleteByID_RequiresAuthor(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	author := h.user(t, "author")
	q, err := h.svc.Create(ctx, author.ID, CreateInput{Title: "t", Content: "c", Tags: []string{"go"}})
	require.NoError(t, err)

	_, err = h.svc.DeleteByID(ctx, primitive.NewObjectID(), q.ID)
	require.ErrorIs(t, err, ErrForbidden)

	res, err := h.svc.DeleteByID(ctx, author.ID, q.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.QuestionsDeleted)
	require.Equal(t, 0, h.tagCount(t, "go"))

	_, err = h.svc.DeleteByID(ctx, author.ID, q.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
