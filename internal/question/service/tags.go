package service

import (
	"context"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/askly/askly/backend/go-services/internal/pagination"
	"github.com/askly/askly/backend/go-services/internal/tags"
	"github.com/askly/askly/backend/go-services/pkg/collections"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// retagging is a tag change computed but not yet persisted.
type retagging struct {
	ids     []primitive.ObjectID
	created []primitive.ObjectID
	removed []primitive.ObjectID
}

// retag resolves the new tag id list for q from the submitted names. New tags are
// counted immediately; removed ones are left for the caller to release once the
// question no longer references them.
func (s *Service) retag(ctx context.Context, q *models.Question, names []string) (*retagging, error) {
	existing, err := s.tags.FindByIDs(ctx, q.TagIDs)
	if err != nil {
		return nil, err
	}
	changes := collections.Diff(existing, tags.NormalizeNames(names),
		func(t models.Tag) string { return t.Name },
		func(t models.Tag) primitive.ObjectID { return t.ID },
	)

	created, err := s.tags.CreateTags(ctx, changes.NewItems)
	if err != nil {
		return nil, err
	}
	rt := &retagging{created: idsOf(created), removed: changes.RemovedIDs}
	rt.ids = make([]primitive.ObjectID, 0, len(changes.KeptIDs)+len(created))
	rt.ids = append(rt.ids, changes.KeptIDs...)
	rt.ids = append(rt.ids, rt.created...)
	return rt, nil
}

// releaseLater drops one association from each id in the background.
func (s *Service) releaseLater(ctx context.Context, ids []primitive.ObjectID) {
	if len(ids) == 0 {
		return
	}
	s.tasks.Go(ctx, "tag_release", func(ctx context.Context) error {
		return s.tags.ReleaseTags(ctx, ids)
	})
}

func (s *Service) populate(ctx context.Context, q *models.Question) (*models.QuestionWithTags, error) {
	list, err := s.tags.FindByIDs(ctx, q.TagIDs)
	if err != nil {
		return nil, err
	}
	return &models.QuestionWithTags{Question: *q, Tags: list}, nil
}

// populatePage resolves the tags of a whole page with one lookup.
func (s *Service) populatePage(ctx context.Context, page pagination.Page[models.Question]) (pagination.Page[models.QuestionWithTags], error) {
	var all []primitive.ObjectID
	for _, q := range page.Items {
		all = append(all, q.TagIDs...)
	}
	list, err := s.tags.FindByIDs(ctx, collections.Unique(all))
	if err != nil {
		return pagination.Page[models.QuestionWithTags]{}, err
	}
	byID := make(map[primitive.ObjectID]models.Tag, len(list))
	for _, t := range list {
		byID[t.ID] = t
	}

	items := make([]models.QuestionWithTags, 0, len(page.Items))
	for _, q := range page.Items {
		qt := models.QuestionWithTags{Question: q, Tags: []models.Tag{}}
		for _, id := range q.TagIDs {
			if t, ok := byID[id]; ok {
				qt.Tags = append(qt.Tags, t)
			}
		}
		items = append(items, qt)
	}
	return pagination.Page[models.QuestionWithTags]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}, nil
}
