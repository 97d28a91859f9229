package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interaction actions recorded by the audit trail.
const (
	ActionAskQuestion = "ask_question"
	ActionAnswer      = "answer"
)

// Interaction is an append-only audit record tied to a question (and optionally an answer).
type Interaction struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID   `bson:"userId" json:"userId"`
	Action     string               `bson:"action" json:"action"`
	QuestionID primitive.ObjectID   `bson:"questionId" json:"questionId"`
	AnswerID   *primitive.ObjectID  `bson:"answerId,omitempty" json:"answerId,omitempty"`
	TagIDs     []primitive.ObjectID `bson:"tagIds,omitempty" json:"tagIds,omitempty"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
}
