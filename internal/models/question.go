package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question is the primary knowledge-base entry. Tags and author are referenced by id;
// the counters are denormalized and only ever changed through atomic increments.
type Question struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	AuthorID      primitive.ObjectID   `bson:"authorId" json:"authorId"`
	Title         string               `bson:"title" json:"title"`
	Content       string               `bson:"content" json:"content"`
	TagIDs        []primitive.ObjectID `bson:"tagIds" json:"tagIds"`
	UpvoteCount   int                  `bson:"upvoteCount" json:"upvoteCount"`
	DownvoteCount int                  `bson:"downvoteCount" json:"downvoteCount"`
	AnswerCount   int                  `bson:"answerCount" json:"answerCount"`
	Views         int                  `bson:"views" json:"views"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Counter field names on the questions collection.
const (
	FieldUpvoteCount   = "upvoteCount"
	FieldDownvoteCount = "downvoteCount"
	FieldAnswerCount   = "answerCount"
	FieldViews         = "views"
)

// QuestionWithTags is a question whose tag references have been populated.
type QuestionWithTags struct {
	Question `bson:",inline"`
	Tags     []Tag `bson:"tags" json:"tags"`
}

// QuestionUpdate is a partial update; nil fields are left untouched.
type QuestionUpdate struct {
	Title   *string
	Content *string
	TagIDs  []primitive.ObjectID
}

// QuestionFilter selects questions for listing and bulk deletion.
// An empty filter matches every question.
type QuestionFilter struct {
	IDs      []primitive.ObjectID
	AuthorID *primitive.ObjectID
	TagID    *primitive.ObjectID
}

// Matches reports whether q satisfies the filter. Used by in-memory repositories.
func (f QuestionFilter) Matches(q *Question) bool {
	if f.IDs != nil && !ContainsID(f.IDs, q.ID) {
		return false
	}
	if f.AuthorID != nil && q.AuthorID != *f.AuthorID {
		return false
	}
	if f.TagID != nil && !ContainsID(q.TagIDs, *f.TagID) {
		return false
	}
	return true
}

// ContainsID reports whether id is present in ids.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
