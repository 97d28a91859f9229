package reconcile

import (
	"context"
	"testing"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/question/repository"
	"github.com/askly/askly/backend/go-services/internal/tags"
	"github.com/askly/askly/backend/go-services/internal/users"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRun_RepairsDrift(t *testing.T) {
	ctx := context.Background()
	questions := repository.NewMemoryRepo()
	tagRepo := tags.NewMemoryRepository()
	userRepo := users.NewMemoryUserRepository()

	author, err := userRepo.Create(ctx, &models.User{Name: "a"})
	require.NoError(t, err)
	goTag, err := tagRepo.UpsertIncrement(ctx, "go")
	require.NoError(t, err)
	// counted twice, referenced once
	_, err = tagRepo.UpsertIncrement(ctx, "go")
	require.NoError(t, err)
	_, err = tagRepo.UpsertIncrement(ctx, "stale")
	require.NoError(t, err)

	_, err = questions.Create(ctx, &models.Question{AuthorID: author.ID, TagIDs: []primitive.ObjectID{goTag.ID}})
	require.NoError(t, err)

	r := New(questions, tagRepo, userRepo)

	rep, err := r.Run(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 2, rep.TagsChecked)
	require.Equal(t, 1, rep.UsersChecked)
	require.Len(t, rep.Fixes, 3)
	got, _ := tagRepo.GetByName("go")
	require.Equal(t, 2, got.QuestionCount, "dry run must not write")

	_, err = r.Run(ctx, false)
	require.NoError(t, err)
	got, _ = tagRepo.GetByName("go")
	require.Equal(t, 1, got.QuestionCount)
	got, _ = tagRepo.GetByName("stale")
	require.Equal(t, 0, got.QuestionCount)
	u, err := userRepo.FindByID(ctx, author.ID)
	require.NoError(t, err)
	require.Equal(t, 1, u.QuestionsCount)

	rep, err = r.Run(ctx, false)
	require.NoError(t, err)
	require.Empty(t, rep.Fixes)
}
