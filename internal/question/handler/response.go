package handler

import (
	"errors"

	"github.com/askly/askly/backend/go-services/internal/cascade"
	"github.com/askly/askly/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type deleteResponse struct {
	Matched             int    `json:"matched"`
	Deleted             int64  `json:"deleted"`
	AnswersDeleted      int64  `json:"answersDeleted"`
	InteractionsDeleted int64  `json:"interactionsDeleted"`
	Drift               string `json:"drift,omitempty"`
}

func newDeleteResponse(res cascade.Result) deleteResponse {
	out := deleteResponse{
		Matched:             res.Matched,
		Deleted:             res.QuestionsDeleted,
		AnswersDeleted:      res.AnswersDeleted,
		InteractionsDeleted: res.InteractionsDeleted,
	}
	if res.Drift != nil {
		out.Drift = res.Drift.Error()
	}
	return out
}

// filter converts the request into a question filter. An empty request is refused so a
// bare call cannot wipe every question.
func (r bulkDeleteRequest) filter() (models.QuestionFilter, error) {
	var f models.QuestionFilter
	if len(r.IDs) == 0 && r.AuthorID == "" && r.TagID == "" {
		return f, errors.New("one of ids, authorId or tagId is required")
	}
	if len(r.IDs) > 0 {
		f.IDs = make([]primitive.ObjectID, 0, len(r.IDs))
		for _, raw := range r.IDs {
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				return f, errors.New("invalid id " + raw)
			}
			f.IDs = append(f.IDs, id)
		}
	}
	if r.AuthorID != "" {
		id, err := primitive.ObjectIDFromHex(r.AuthorID)
		if err != nil {
			return f, errors.New("invalid authorId")
		}
		f.AuthorID = &id
	}
	if r.TagID != "" {
		id, err := primitive.ObjectIDFromHex(r.TagID)
		if err != nil {
			return f, errors.New("invalid tagId")
		}
		f.TagID = &id
	}
	return f, nil
}
