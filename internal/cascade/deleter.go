// Package cascade removes batches of questions together with everything that exists
// because of them, backing out the counters those questions contributed to.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/pkg/collections"
	"github.com/askly/askly/backend/go-services/pkg/logger"
	"github.com/askly/askly/backend/go-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds the cleanup writes in flight for one batch.
const DefaultParallelism = 8

type QuestionStore interface {
	FindMany(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

type TagCounter interface {
	IncreaseQuestionCount(ctx context.Context, id primitive.ObjectID, delta int) error
}

type AuthorCounter interface {
	IncreaseQuestionsCount(ctx context.Context, id primitive.ObjectID, delta int) error
}

// ChildRemover deletes records owned by questions.
type ChildRemover interface {
	BulkDeleteByQuestionIDs(ctx context.Context, questionIDs []primitive.ObjectID) (int64, error)
}

// RefPuller drops references to deleted questions from user sets.
type RefPuller interface {
	PullQuestionRefs(ctx context.Context, questionIDs []primitive.ObjectID) error
}

type Deps struct {
	Questions    QuestionStore
	Tags         TagCounter
	Authors      AuthorCounter
	Answers      ChildRemover
	Interactions ChildRemover
	// UserRefs is optional.
	UserRefs RefPuller
}

// Result summarizes one cascade run. Drift holds the cleanup failures that left
// counters or child records behind; the questions are deleted regardless.
type Result struct {
	Matched             int
	QuestionsDeleted    int64
	AnswersDeleted      int64
	InteractionsDeleted int64
	TagsDecremented     int
	AuthorsDecremented  int
	Drift               error
}

type Deleter struct {
	deps        Deps
	parallelism int
	log         *logger.Logger
}

func NewDeleter(deps Deps) *Deleter {
	return &Deleter{deps: deps, parallelism: DefaultParallelism, log: logger.Named("cascade")}
}

// Delete removes every question matching filter. Tag and author contributions are
// aggregated across the batch first so each distinct tag and author gets exactly one
// decrement. Counter and child cleanup run concurrently and never block the final
// question delete; only a failure to load or delete the questions is returned.
func (d *Deleter) Delete(ctx context.Context, filter models.QuestionFilter) (Result, error) {
	var res Result
	qs, err := d.deps.Questions.FindMany(ctx, filter)
	if err != nil {
		return res, fmt.Errorf("load questions: %w", err)
	}
	res.Matched = len(qs)
	if len(qs) == 0 {
		return res, nil
	}

	ids := make([]primitive.ObjectID, 0, len(qs))
	authors := make([]primitive.ObjectID, 0, len(qs))
	var tagRefs []primitive.ObjectID
	for _, q := range qs {
		ids = append(ids, q.ID)
		authors = append(authors, q.AuthorID)
		tagRefs = append(tagRefs, collections.Unique(q.TagIDs)...)
	}
	tagCounts := collections.CountOccurrences(tagRefs)
	authorCounts := collections.CountOccurrences(authors)

	var (
		mu    sync.Mutex
		drift []error
	)
	record := func(err error) {
		mu.Lock()
		drift = append(drift, err)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(d.parallelism)
	for _, tc := range tagCounts {
		tc := tc
		g.Go(func() error {
			if err := d.deps.Tags.IncreaseQuestionCount(ctx, tc.Item, -tc.Count); err != nil {
				record(fmt.Errorf("tag %s -%d: %w", tc.Item.Hex(), tc.Count, err))
				return nil
			}
			mu.Lock()
			res.TagsDecremented++
			mu.Unlock()
			return nil
		})
	}
	for _, ac := range authorCounts {
		ac := ac
		g.Go(func() error {
			if err := d.deps.Authors.IncreaseQuestionsCount(ctx, ac.Item, -ac.Count); err != nil {
				record(fmt.Errorf("author %s -%d: %w", ac.Item.Hex(), ac.Count, err))
				return nil
			}
			mu.Lock()
			res.AuthorsDecremented++
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		n, err := d.deps.Answers.BulkDeleteByQuestionIDs(ctx, ids)
		if err != nil {
			record(fmt.Errorf("delete answers: %w", err))
			return nil
		}
		mu.Lock()
		res.AnswersDeleted = n
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		n, err := d.deps.Interactions.BulkDeleteByQuestionIDs(ctx, ids)
		if err != nil {
			record(fmt.Errorf("delete interactions: %w", err))
			return nil
		}
		mu.Lock()
		res.InteractionsDeleted = n
		mu.Unlock()
		return nil
	})
	if d.deps.UserRefs != nil {
		g.Go(func() error {
			if err := d.deps.UserRefs.PullQuestionRefs(ctx, ids); err != nil {
				record(fmt.Errorf("pull user refs: %w", err))
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(drift) > 0 {
		res.Drift = errors.Join(drift...)
		d.log.Warnf("cascade for %d questions left drift: %v", len(ids), res.Drift)
	}

	n, err := d.deps.Questions.DeleteMany(ctx, ids)
	if err != nil {
		return res, fmt.Errorf("delete questions: %w", err)
	}
	res.QuestionsDeleted = n
	metrics.CascadeDeleted.WithLabelValues("questions").Add(float64(n))
	metrics.CascadeDeleted.WithLabelValues("answers").Add(float64(res.AnswersDeleted))
	metrics.CascadeDeleted.WithLabelValues("interactions").Add(float64(res.InteractionsDeleted))
	return res, nil
}
