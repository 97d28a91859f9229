package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/askly/askly/backend/go-services/internal/votes"
	"github.com/askly/askly/backend/go-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// applyVote issues the question counter update and the user set update as two
// independent atomic writes and waits for both.
func (s *Service) applyVote(ctx context.Context, userID, questionID primitive.ObjectID, eff votes.Effect) error {
	var g errgroup.Group
	g.Go(func() error {
		if err := s.repo.Inc(ctx, questionID, eff.CounterDeltas()); err != nil {
			return fmt.Errorf("question counters: %w", s.mapErr(err, "question", questionID))
		}
		return nil
	})
	g.Go(func() error {
		if err := s.users.UpdateVoteSets(ctx, userID, questionID, eff.Add, eff.Removes()...); err != nil {
			return fmt.Errorf("vote sets: %w", s.mapErr(err, "user", userID))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Errorf("vote %s->%s on %s by %s partially applied: %v", eff.From, eff.To, questionID.Hex(), userID.Hex(), err)
		return err
	}
	return nil
}

func observeVote(action votes.Action, err error) {
	result := "accepted"
	switch {
	case err == nil:
	case votes.IsRejection(err):
		result = "rejected"
	case errors.Is(err, votes.ErrLockTimeout):
		result = "busy"
	default:
		result = "error"
	}
	metrics.Votes.WithLabelValues(string(action), result).Inc()
}
