package votes

import (
	"math/rand"
	"testing"

	"github.com/askly/askly/backend/go-services/internal/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from       State
		action     Action
		up, down   int
		add, rm    models.VoteSet
		to         State
		wantErr    error
	}{
		{StateNone, ActionUpvote, 1, 0, models.VoteSetUpvote, models.VoteSetNone, StateUpvoted, nil},
		{StateNone, ActionDownvote, 0, 1, models.VoteSetDownvote, models.VoteSetNone, StateDownvoted, nil},
		{StateUpvoted, ActionUpvote, 0, 0, "", "", StateNone, ErrAlreadyUpvoted},
		{StateUpvoted, ActionDownvote, -1, 1, models.VoteSetDownvote, models.VoteSetUpvote, StateDownvoted, nil},
		{StateUpvoted, ActionUnvote, -1, 0, models.VoteSetNone, models.VoteSetUpvote, StateNone, nil},
		{StateDownvoted, ActionDownvote, 0, 0, "", "", StateNone, ErrAlreadyDownvoted},
		{StateDownvoted, ActionUpvote, 1, -1, models.VoteSetUpvote, models.VoteSetDownvote, StateUpvoted, nil},
		{StateDownvoted, ActionUnvote, 0, -1, models.VoteSetNone, models.VoteSetDownvote, StateNone, nil},
		{StateNone, ActionUnvote, 0, 0, "", "", StateNone, ErrNotVoted},
	}
	for _, tc := range cases {
		t.Run(tc.from.String()+"/"+string(tc.action), func(t *testing.T) {
			e, err := Transition(tc.from, tc.action)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.True(t, IsRejection(err))
				require.Equal(t, Effect{}, e)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.up, e.UpvoteDelta)
			require.Equal(t, tc.down, e.DownvoteDelta)
			require.Equal(t, tc.add, e.Add)
			require.Equal(t, tc.rm, e.Remove)
			require.Equal(t, tc.to, e.To)
			require.Equal(t, tc.from, e.From)
		})
	}
}

func TestTransition_UnknownAction(t *testing.T) {
	_, err := Transition(StateNone, Action("sideways"))
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" UpVote ")
	require.NoError(t, err)
	require.Equal(t, ActionUpvote, a)
	_, err = ParseAction("like")
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestStateOf(t *testing.T) {
	q := primitive.NewObjectID()
	require.Equal(t, StateNone, StateOf(nil, q))
	require.Equal(t, StateNone, StateOf(&models.User{}, q))
	require.Equal(t, StateUpvoted, StateOf(&models.User{UpvoteQuestionIDs: []primitive.ObjectID{q}}, q))
	require.Equal(t, StateDownvoted, StateOf(&models.User{DownvoteQuestionIDs: []primitive.ObjectID{q}}, q))
}

func TestTransitionFor_RepairsRecordInBothSets(t *testing.T) {
	q := primitive.NewObjectID()
	corrupt := func() *models.User {
		return &models.User{
			UpvoteQuestionIDs:   []primitive.ObjectID{q},
			DownvoteQuestionIDs: []primitive.ObjectID{q},
		}
	}

	_, err := TransitionFor(corrupt(), q, ActionUpvote)
	require.ErrorIs(t, err, ErrAlreadyUpvoted)

	for _, action := range []Action{ActionUnvote, ActionDownvote} {
		u := corrupt()
		e, err := TransitionFor(u, q, action)
		require.NoError(t, err)
		applySets(u, q, e)
		inUp := models.ContainsID(u.UpvoteQuestionIDs, q)
		inDown := models.ContainsID(u.DownvoteQuestionIDs, q)
		require.False(t, inUp && inDown, "%s left both memberships", action)
		require.Equal(t, action == ActionDownvote, inDown)
		require.False(t, inUp)
	}

	// a clean record gets no extra pull
	e, err := TransitionFor(&models.User{UpvoteQuestionIDs: []primitive.ObjectID{q}}, q, ActionUnvote)
	require.NoError(t, err)
	require.Equal(t, []models.VoteSet{models.VoteSetUpvote}, e.Removes())
}

func TestEffect_CounterDeltasAndAward(t *testing.T) {
	e, err := Transition(StateDownvoted, ActionUpvote)
	require.NoError(t, err)
	require.Equal(t, map[string]int{models.FieldUpvoteCount: 1, models.FieldDownvoteCount: -1}, e.CounterDeltas())
	require.True(t, e.AwardsAuthor())

	e, err = Transition(StateUpvoted, ActionUnvote)
	require.NoError(t, err)
	require.Equal(t, map[string]int{models.FieldUpvoteCount: -1}, e.CounterDeltas())
	require.False(t, e.AwardsAuthor())
}

// Random walks over the state machine: every accepted delta pair is one of the six
// allowed shapes, the counters equal the current state, and the applied sets stay
// mutually exclusive.
func TestTransition_RandomWalkInvariants(t *testing.T) {
	allowed := map[[2]int]bool{
		{1, 0}: true, {0, 1}: true, {-1, 0}: true, {0, -1}: true, {-1, 1}: true, {1, -1}: true,
	}
	actions := []Action{ActionUpvote, ActionDownvote, ActionUnvote}
	rng := rand.New(rand.NewSource(42))
	q := primitive.NewObjectID()

	for walk := 0; walk < 200; walk++ {
		u := &models.User{}
		up, down := 0, 0
		for step := 0; step < 30; step++ {
			from := StateOf(u, q)
			e, err := Transition(from, actions[rng.Intn(len(actions))])
			if err != nil {
				require.True(t, IsRejection(err))
				continue
			}
			require.True(t, allowed[[2]int{e.UpvoteDelta, e.DownvoteDelta}], "delta %d,%d", e.UpvoteDelta, e.DownvoteDelta)
			up += e.UpvoteDelta
			down += e.DownvoteDelta
			applySets(u, q, e)

			inUp := models.ContainsID(u.UpvoteQuestionIDs, q)
			inDown := models.ContainsID(u.DownvoteQuestionIDs, q)
			require.False(t, inUp && inDown, "vote sets must stay exclusive")
			require.Equal(t, boolInt(inUp), up)
			require.Equal(t, boolInt(inDown), down)
		}
	}
}

func applySets(u *models.User, q primitive.ObjectID, e Effect) {
	pull := func(ids []primitive.ObjectID) []primitive.ObjectID {
		var out []primitive.ObjectID
		for _, v := range ids {
			if v != q {
				out = append(out, v)
			}
		}
		return out
	}
	for _, vs := range e.Removes() {
		switch vs {
		case models.VoteSetUpvote:
			u.UpvoteQuestionIDs = pull(u.UpvoteQuestionIDs)
		case models.VoteSetDownvote:
			u.DownvoteQuestionIDs = pull(u.DownvoteQuestionIDs)
		}
	}
	switch e.Add {
	case models.VoteSetUpvote:
		u.UpvoteQuestionIDs = append(u.UpvoteQuestionIDs, q)
	case models.VoteSetDownvote:
		u.DownvoteQuestionIDs = append(u.DownvoteQuestionIDs, q)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
