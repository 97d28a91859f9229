// Package app assembles repositories and services into the running application.
package app

import (
	"time"

	"github.com/askly/askly/backend/go-services/internal/answers"
	"github.com/askly/askly/backend/go-services/internal/cascade"
	"github.com/askly/askly/backend/go-services/internal/database"
	"github.com/askly/askly/backend/go-services/internal/interactions"
	"github.com/askly/askly/backend/go-services/internal/question/repository"
	"github.com/askly/askly/backend/go-services/internal/question/service"
	"github.com/askly/askly/backend/go-services/internal/reputation"
	"github.com/askly/askly/backend/go-services/internal/tags"
	"github.com/askly/askly/backend/go-services/internal/tasks"
	"github.com/askly/askly/backend/go-services/internal/users"
	"github.com/askly/askly/backend/go-services/internal/votes"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repositories is one persistence backend for every collection.
type Repositories struct {
	Questions    repository.Repository
	Tags         tags.Repository
	Users        users.UserRepository
	Answers      answers.Repository
	Interactions interactions.Repository
}

// MemoryRepositories returns in-memory repositories, used without MongoDB and in tests.
func MemoryRepositories() Repositories {
	return Repositories{
		Questions:    repository.NewMemoryRepo(),
		Tags:         tags.NewMemoryRepository(),
		Users:        users.NewMemoryUserRepository(),
		Answers:      answers.NewMemoryRepository(),
		Interactions: interactions.NewMemoryRepository(),
	}
}

func MongoRepositories(db *mongo.Database) Repositories {
	return Repositories{
		Questions:    repository.NewMongoRepo(db.Collection(database.CollQuestions)),
		Tags:         tags.NewMongoRepository(db.Collection(database.CollTags)),
		Users:        users.NewMongoUserRepository(db.Collection(database.CollUsers)),
		Answers:      answers.NewMongoRepository(db.Collection(database.CollAnswers)),
		Interactions: interactions.NewMongoRepository(db.Collection(database.CollInteractions)),
	}
}

type Options struct {
	// Locker serializes votes per (user, question); nil leaves them unserialized.
	Locker           votes.Locker
	TaskTimeout      time.Duration
	UpvoteReputation int
}

// Services is the wired application.
type Services struct {
	Questions    *service.Service
	Answers      *answers.Service
	Tags         *tags.Manager
	Users        *users.Service
	Interactions *interactions.Service
	Reputation   *reputation.Ledger
	Cascade      *cascade.Deleter
	Tasks        *tasks.Dispatcher
}

func NewServices(repos Repositories, opts Options) *Services {
	s := &Services{
		Tags:         tags.NewManager(repos.Tags),
		Users:        users.NewService(repos.Users),
		Interactions: interactions.NewService(repos.Interactions),
		Tasks:        tasks.NewDispatcher(opts.TaskTimeout),
	}
	s.Reputation = reputation.NewLedger(s.Users, s.Tasks, reputation.Values{UpvoteQuestion: opts.UpvoteReputation})
	s.Cascade = cascade.NewDeleter(cascade.Deps{
		Questions:    repos.Questions,
		Tags:         s.Tags,
		Authors:      s.Users,
		Answers:      repos.Answers,
		Interactions: s.Interactions,
		UserRefs:     s.Users,
	})
	s.Questions = service.New(service.Deps{
		Questions:    repos.Questions,
		Tags:         s.Tags,
		Users:        s.Users,
		Interactions: s.Interactions,
		Answers:      repos.Answers,
		Reputation:   s.Reputation,
		Cascade:      s.Cascade,
		Tasks:        s.Tasks,
		Locker:       opts.Locker,
	})
	s.Answers = answers.NewService(repos.Answers, s.Questions, s.Interactions, s.Tasks)
	return s
}
