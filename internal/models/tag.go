package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tag is a normalized label shared by questions. QuestionCount tracks how many live
// questions reference the tag and never goes below zero.
type Tag struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	QuestionCount int                `bson:"questionCount" json:"questionCount"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

const FieldQuestionCount = "questionCount"
