// Package reconcile repairs counter drift by recomputing Tag.questionCount and
// User.questionsCount from the questions collection. Counts written while a pass runs
// can be overwritten, so run it when write traffic is low.
package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type QuestionCounts interface {
	CountTagRefs(ctx context.Context) (map[primitive.ObjectID]int, error)
	CountByAuthor(ctx context.Context) (map[primitive.ObjectID]int, error)
}

type TagStore interface {
	AllIDs(ctx context.Context) ([]primitive.ObjectID, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tag, error)
	SetQuestionCount(ctx context.Context, id primitive.ObjectID, count int) error
}

type UserStore interface {
	AllIDs(ctx context.Context) ([]primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	SetQuestionsCount(ctx context.Context, id primitive.ObjectID, count int) error
}

// Fix is one corrected counter.
type Fix struct {
	Collection string
	ID         primitive.ObjectID
	Was        int
	Now        int
}

type Report struct {
	TagsChecked  int
	UsersChecked int
	Fixes        []Fix
}

type Reconciler struct {
	questions QuestionCounts
	tags      TagStore
	users     UserStore
	log       *logger.Logger
}

func New(q QuestionCounts, t TagStore, u UserStore) *Reconciler {
	return &Reconciler{questions: q, tags: t, users: u, log: logger.Named("reconcile")}
}

// Run compares every tag and user counter with the recomputed value and, unless
// dryRun, overwrites the ones that drifted.
func (r *Reconciler) Run(ctx context.Context, dryRun bool) (Report, error) {
	var (
		rep Report
		mu  sync.Mutex
	)
	add := func(f Fix) {
		mu.Lock()
		rep.Fixes = append(rep.Fixes, f)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.tagsPass(gctx, dryRun, add)
		rep.TagsChecked = n
		return err
	})
	g.Go(func() error {
		n, err := r.usersPass(gctx, dryRun, add)
		rep.UsersChecked = n
		return err
	})
	err := g.Wait()
	return rep, err
}

func (r *Reconciler) tagsPass(ctx context.Context, dryRun bool, add func(Fix)) (int, error) {
	refs, err := r.questions.CountTagRefs(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tag refs: %w", err)
	}
	ids, err := r.tags.AllIDs(ctx)
	if err != nil {
		return 0, err
	}
	list, err := r.tags.FindByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	for _, t := range list {
		want := refs[t.ID]
		if t.QuestionCount == want {
			continue
		}
		r.log.Warnf("tag %s (%s) questionCount %d, want %d", t.ID.Hex(), t.Name, t.QuestionCount, want)
		if !dryRun {
			if err := r.tags.SetQuestionCount(ctx, t.ID, want); err != nil {
				return len(list), fmt.Errorf("set tag %s: %w", t.ID.Hex(), err)
			}
		}
		add(Fix{Collection: "tags", ID: t.ID, Was: t.QuestionCount, Now: want})
	}
	return len(list), nil
}

func (r *Reconciler) usersPass(ctx context.Context, dryRun bool, add func(Fix)) (int, error) {
	byAuthor, err := r.questions.CountByAuthor(ctx)
	if err != nil {
		return 0, fmt.Errorf("count by author: %w", err)
	}
	ids, err := r.users.AllIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		u, err := r.users.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}
		want := byAuthor[id]
		if u.QuestionsCount == want {
			continue
		}
		r.log.Warnf("user %s questionsCount %d, want %d", id.Hex(), u.QuestionsCount, want)
		if !dryRun {
			if err := r.users.SetQuestionsCount(ctx, id, want); err != nil {
				return 0, fmt.Errorf("set user %s: %w", id.Hex(), err)
			}
		}
		add(Fix{Collection: "users", ID: id, Was: u.QuestionsCount, Now: want})
	}
	return len(ids), nil
}
