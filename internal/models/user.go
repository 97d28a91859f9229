package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User carries reputation and the denormalized vote/save sets. A question id is in at most
// one of UpvoteQuestionIDs and DownvoteQuestionIDs.
type User struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name                string               `bson:"name" json:"name"`
	Email               string               `bson:"email" json:"email"`
	Reputation          int                  `bson:"reputation" json:"reputation"`
	QuestionsCount      int                  `bson:"questionsCount" json:"questionsCount"`
	UpvoteQuestionIDs   []primitive.ObjectID `bson:"upvoteQuestionIds" json:"upvoteQuestionIds"`
	DownvoteQuestionIDs []primitive.ObjectID `bson:"downvoteQuestionIds" json:"downvoteQuestionIds"`
	SavedQuestionIDs    []primitive.ObjectID `bson:"savedQuestionIds" json:"savedQuestionIds"`
	CreatedAt           time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time            `bson:"updatedAt" json:"updatedAt"`
}

const (
	FieldReputation     = "reputation"
	FieldQuestionsCount = "questionsCount"
)

// VoteSet names one of the user's per-question vote lists.
type VoteSet string

const (
	VoteSetNone     VoteSet = ""
	VoteSetUpvote   VoteSet = "upvoteQuestionIds"
	VoteSetDownvote VoteSet = "downvoteQuestionIds"
)

const FieldSavedQuestionIDs = "savedQuestionIds"
