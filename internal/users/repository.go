package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/askly/askly/backend/go-services/internal/counter"
	"github.com/askly/askly/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("user not found")

// UserRepository defines persistence operations for users. Every mutation is a single
// atomic document update; nothing reads the user back to write it.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// UpdateVoteSets adds questionID to the add set and pulls it from each remove set.
	UpdateVoteSets(ctx context.Context, userID, questionID primitive.ObjectID, add models.VoteSet, remove ...models.VoteSet) error
	UpdateSaved(ctx context.Context, userID, questionID primitive.ObjectID, save bool) error
	IncreaseReputation(ctx context.Context, id primitive.ObjectID, amount int) error
	IncreaseQuestionsCount(ctx context.Context, id primitive.ObjectID, delta int) (clamped bool, err error)
	// PullQuestionRefs drops deleted question ids from every user's vote and saved sets.
	PullQuestionRefs(ctx context.Context, questionIDs []primitive.ObjectID) error
	SetQuestionsCount(ctx context.Context, id primitive.ObjectID, count int) error
	AllIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col      *mongo.Collection
	counters *counter.Store
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col, counters: counter.NewStore(col)}
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.UpvoteQuestionIDs == nil {
		u.UpvoteQuestionIDs = []primitive.ObjectID{}
	}
	if u.DownvoteQuestionIDs == nil {
		u.DownvoteQuestionIDs = []primitive.ObjectID{}
	}
	if u.SavedQuestionIDs == nil {
		u.SavedQuestionIDs = []primitive.ObjectID{}
	}
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) UpdateVoteSets(ctx context.Context, userID, questionID primitive.ObjectID, add models.VoteSet, remove ...models.VoteSet) error {
	update := bson.M{"$set": bson.M{"updatedAt": time.Now().UTC()}}
	if add != models.VoteSetNone {
		update["$addToSet"] = bson.M{string(add): questionID}
	}
	pulls := bson.M{}
	for _, vs := range remove {
		if vs != models.VoteSetNone {
			pulls[string(vs)] = questionID
		}
	}
	if len(pulls) > 0 {
		update["$pull"] = pulls
	}
	return r.updateOne(ctx, userID, update)
}

func (r *MongoUserRepository) UpdateSaved(ctx context.Context, userID, questionID primitive.ObjectID, save bool) error {
	op := "$pull"
	if save {
		op = "$addToSet"
	}
	return r.updateOne(ctx, userID, bson.M{
		op:     bson.M{models.FieldSavedQuestionIDs: questionID},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *MongoUserRepository) IncreaseReputation(ctx context.Context, id primitive.ObjectID, amount int) error {
	err := r.counters.Inc(ctx, id, map[string]int{models.FieldReputation: amount})
	if errors.Is(err, counter.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *MongoUserRepository) IncreaseQuestionsCount(ctx context.Context, id primitive.ObjectID, delta int) (bool, error) {
	if delta > 0 {
		err := r.counters.Inc(ctx, id, map[string]int{models.FieldQuestionsCount: delta})
		if errors.Is(err, counter.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	clamped, err := r.counters.IncClamped(ctx, id, models.FieldQuestionsCount, delta)
	if errors.Is(err, counter.ErrNotFound) {
		return false, ErrNotFound
	}
	return clamped, err
}

func (r *MongoUserRepository) PullQuestionRefs(ctx context.Context, questionIDs []primitive.ObjectID) error {
	if len(questionIDs) == 0 {
		return nil
	}
	in := bson.M{"$in": questionIDs}
	filter := bson.M{"$or": bson.A{
		bson.M{string(models.VoteSetUpvote): in},
		bson.M{string(models.VoteSetDownvote): in},
		bson.M{models.FieldSavedQuestionIDs: in},
	}}
	_, err := r.col.UpdateMany(ctx, filter, bson.M{"$pull": bson.M{
		string(models.VoteSetUpvote):   in,
		string(models.VoteSetDownvote): in,
		models.FieldSavedQuestionIDs:   in,
	}})
	return err
}

func (r *MongoUserRepository) SetQuestionsCount(ctx context.Context, id primitive.ObjectID, count int) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{models.FieldQuestionsCount: count, "updatedAt": time.Now().UTC()}})
}

func (r *MongoUserRepository) AllIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out, nil
}

func (r *MongoUserRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
