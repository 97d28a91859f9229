// Package votes is the per-(user, question) vote state machine. It computes the full
// counter delta and set mutation for a requested transition before anything is written.
package votes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/askly/askly/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// State is the user's current vote on one question.
type State int

const (
	StateNone State = iota
	StateUpvoted
	StateDownvoted
)

func (s State) String() string {
	switch s {
	case StateUpvoted:
		return "UPVOTED"
	case StateDownvoted:
		return "DOWNVOTED"
	default:
		return "NONE"
	}
}

// Action is the target the client asks for, not a raw state.
type Action string

const (
	ActionUpvote   Action = "upvote"
	ActionDownvote Action = "downvote"
	ActionUnvote   Action = "unvote"
)

// ParseAction accepts upvote|downvote|unvote in any case.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionUpvote, ActionDownvote, ActionUnvote:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

var (
	ErrAlreadyUpvoted   = errors.New("you have already upvoted this question")
	ErrAlreadyDownvoted = errors.New("you have already downvoted this question")
	ErrNotVoted         = errors.New("you have not voted on this question")
	ErrUnknownAction    = errors.New("unknown vote action")
)

// IsRejection reports whether err is a vote validation rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrAlreadyUpvoted) ||
		errors.Is(err, ErrAlreadyDownvoted) ||
		errors.Is(err, ErrNotVoted) ||
		errors.Is(err, ErrUnknownAction)
}

// Effect is everything a transition writes: the question counter deltas and the
// single set move on the voter's record.
type Effect struct {
	UpvoteDelta   int
	DownvoteDelta int
	// Add is the vote set the question id joins, Remove the one it leaves.
	Add    models.VoteSet
	Remove models.VoteSet
	// Stale is a second set to pull from, set only when the record held both memberships.
	Stale models.VoteSet
	From  State
	To    State
}

// CounterDeltas returns the non-zero question counter increments.
func (e Effect) CounterDeltas() map[string]int {
	d := map[string]int{}
	if e.UpvoteDelta != 0 {
		d[models.FieldUpvoteCount] = e.UpvoteDelta
	}
	if e.DownvoteDelta != 0 {
		d[models.FieldDownvoteCount] = e.DownvoteDelta
	}
	return d
}

// Removes lists every set the question id leaves.
func (e Effect) Removes() []models.VoteSet {
	var out []models.VoteSet
	for _, vs := range []models.VoteSet{e.Remove, e.Stale} {
		if vs != models.VoteSetNone {
			out = append(out, vs)
		}
	}
	return out
}

// AwardsAuthor reports whether the transition earns the question author reputation.
func (e Effect) AwardsAuthor() bool {
	return e.To == StateUpvoted
}

// StateOf derives the user's state on questionID from their two vote sets. A record
// holding both memberships is treated as upvoted.
func StateOf(u *models.User, questionID primitive.ObjectID) State {
	if u == nil {
		return StateNone
	}
	if models.ContainsID(u.UpvoteQuestionIDs, questionID) {
		return StateUpvoted
	}
	if models.ContainsID(u.DownvoteQuestionIDs, questionID) {
		return StateDownvoted
	}
	return StateNone
}

// Transition computes the effect of action from state, or the rejection.
func Transition(from State, action Action) (Effect, error) {
	switch action {
	case ActionUpvote:
		switch from {
		case StateUpvoted:
			return Effect{}, ErrAlreadyUpvoted
		case StateDownvoted:
			return Effect{UpvoteDelta: 1, DownvoteDelta: -1, Add: models.VoteSetUpvote, Remove: models.VoteSetDownvote, From: from, To: StateUpvoted}, nil
		default:
			return Effect{UpvoteDelta: 1, Add: models.VoteSetUpvote, From: from, To: StateUpvoted}, nil
		}
	case ActionDownvote:
		switch from {
		case StateDownvoted:
			return Effect{}, ErrAlreadyDownvoted
		case StateUpvoted:
			return Effect{UpvoteDelta: -1, DownvoteDelta: 1, Add: models.VoteSetDownvote, Remove: models.VoteSetUpvote, From: from, To: StateDownvoted}, nil
		default:
			return Effect{DownvoteDelta: 1, Add: models.VoteSetDownvote, From: from, To: StateDownvoted}, nil
		}
	case ActionUnvote:
		switch from {
		case StateUpvoted:
			return Effect{UpvoteDelta: -1, Remove: models.VoteSetUpvote, From: from, To: StateNone}, nil
		case StateDownvoted:
			return Effect{DownvoteDelta: -1, Remove: models.VoteSetDownvote, From: from, To: StateNone}, nil
		default:
			return Effect{}, ErrNotVoted
		}
	}
	return Effect{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

// TransitionFor computes the effect of action on the user's record. A record holding
// both memberships is repaired by the accepted transition: the question id ends up in
// at most the destination set.
func TransitionFor(u *models.User, questionID primitive.ObjectID, action Action) (Effect, error) {
	eff, err := Transition(StateOf(u, questionID), action)
	if err != nil {
		return eff, err
	}
	if isCorrupt(u, questionID) && eff.Add != models.VoteSetDownvote && eff.Remove != models.VoteSetDownvote {
		eff.Stale = models.VoteSetDownvote
	}
	return eff, nil
}

func isCorrupt(u *models.User, questionID primitive.ObjectID) bool {
	return u != nil &&
		models.ContainsID(u.UpvoteQuestionIDs, questionID) &&
		models.ContainsID(u.DownvoteQuestionIDs, questionID)
}
