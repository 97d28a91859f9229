package app

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/askly/askly/backend/go-services/internal/config"
	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/question/service"
	"github.com/askly/askly/backend/go-services/internal/votes"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewLocker(t *testing.T) {
	l, err := NewLocker(config.VotesConfig{LockMode: config.VoteLockNone}, nil)
	require.NoError(t, err)
	require.IsType(t, votes.NoopLocker{}, l)

	l, err = NewLocker(config.VotesConfig{LockMode: config.VoteLockMemory, LockWait: time.Second}, nil)
	require.NoError(t, err)
	require.IsType(t, &votes.MemoryLocker{}, l)

	_, err = NewLocker(config.VotesConfig{LockMode: config.VoteLockRedis}, nil)
	require.Error(t, err)

	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	l, err = NewLocker(config.VotesConfig{LockMode: config.VoteLockRedis, LockTTL: time.Second, LockWait: time.Second}, redis.NewClient(&redis.Options{Addr: m.Addr()}))
	require.NoError(t, err)
	require.IsType(t, &votes.RedisLocker{}, l)
}

func TestNewServices_EndToEnd(t *testing.T) {
	svc := NewServices(MemoryRepositories(), Options{TaskTimeout: time.Second, UpvoteReputation: 7})
	ctx := context.Background()

	author, err := svc.Users.Register(ctx, "author", "")
	require.NoError(t, err)
	voter, err := svc.Users.Register(ctx, "voter", "")
	require.NoError(t, err)

	q, err := svc.Questions.Create(ctx, author.ID, service.CreateInput{Title: "t", Content: "c", Tags: []string{"go"}})
	require.NoError(t, err)
	_, err = svc.Questions.Vote(ctx, voter.ID, q.ID, votes.ActionUpvote)
	require.NoError(t, err)
	_, err = svc.Answers.Create(ctx, q.ID, voter.ID, "a")
	require.NoError(t, err)
	svc.Tasks.Wait()

	got, err := svc.Questions.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.UpvoteCount)
	require.Equal(t, 1, got.AnswerCount)

	u, err := svc.Users.FindByID(ctx, author.ID)
	require.NoError(t, err)
	require.Equal(t, 7, u.Reputation)
	require.Equal(t, 1, u.QuestionsCount)

	res, err := svc.Questions.BulkDelete(ctx, models.QuestionFilter{IDs: []primitive.ObjectID{q.ID}})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.AnswersDeleted)
	require.EqualValues(t, 2, res.InteractionsDeleted)
}
