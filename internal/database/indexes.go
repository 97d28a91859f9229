package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	CollQuestions    = "questions"
	CollTags         = "tags"
	CollUsers        = "users"
	CollAnswers      = "answers"
	CollInteractions = "interactions"
)

// Indexes lists the indexes each collection needs. The unique tag name index is what
// makes concurrent create-or-reuse of a tag converge on one document.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollTags: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "questionCount", Value: -1}, {Key: "name", Value: 1}}},
		},
		CollQuestions: {
			{Keys: bson.D{{Key: "authorId", Value: 1}}},
			{Keys: bson.D{{Key: "tagIds", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		},
		CollAnswers: {
			{Keys: bson.D{{Key: "questionId", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "authorId", Value: 1}}},
		},
		CollInteractions: {
			{Keys: bson.D{{Key: "questionId", Value: 1}}},
		},
		CollUsers: {
			{Keys: bson.D{{Key: "upvoteQuestionIds", Value: 1}}},
			{Keys: bson.D{{Key: "downvoteQuestionIds", Value: 1}}},
			{Keys: bson.D{{Key: "savedQuestionIds", Value: 1}}},
		},
	}
}

// EnsureIndexes creates every index in Indexes; existing indexes are left as they are.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for col, models := range Indexes() {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}
