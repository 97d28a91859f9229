// Package reputation applies engagement reputation deltas to users. Awards are an
// engagement signal, not a balance: they are dispatched in the background and dropped
// on failure.
package reputation

import (
	"context"

	"github.com/askly/askly/backend/go-services/internal/tasks"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultUpvoteQuestion is awarded to a question author for each accepted upvote.
const DefaultUpvoteQuestion = 10

// Incrementer is the user capability the ledger needs.
type Incrementer interface {
	IncreaseReputation(ctx context.Context, id primitive.ObjectID, amount int) error
}

// Dispatcher runs best-effort work without the caller waiting.
type Dispatcher interface {
	Go(ctx context.Context, name string, fn tasks.Func)
}

// Values holds the point amount per engagement event.
type Values struct {
	UpvoteQuestion int
}

type Ledger struct {
	users  Incrementer
	tasks  Dispatcher
	values Values
}

func NewLedger(users Incrementer, d Dispatcher, v Values) *Ledger {
	if v.UpvoteQuestion == 0 {
		v.UpvoteQuestion = DefaultUpvoteQuestion
	}
	return &Ledger{users: users, tasks: d, values: v}
}

// Award adds amount to userID's reputation. It returns immediately.
func (l *Ledger) Award(ctx context.Context, userID primitive.ObjectID, amount int) {
	if amount == 0 || userID.IsZero() {
		return
	}
	l.tasks.Go(ctx, "reputation_award", func(ctx context.Context) error {
		return l.users.IncreaseReputation(ctx, userID, amount)
	})
}

// AwardQuestionUpvote credits the author of an upvoted question.
func (l *Ledger) AwardQuestionUpvote(ctx context.Context, authorID primitive.ObjectID) {
	l.Award(ctx, authorID, l.values.UpvoteQuestion)
}
