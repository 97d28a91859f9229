package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Answer belongs to a question and is removed when its question is deleted.
type Answer struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	QuestionID primitive.ObjectID `bson:"questionId" json:"questionId"`
	AuthorID   primitive.ObjectID `bson:"authorId" json:"authorId"`
	Content    string             `bson:"content" json:"content"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
