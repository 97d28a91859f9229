package app

import (
	"errors"

	"github.com/askly/askly/backend/go-services/internal/config"
	"github.com/askly/askly/backend/go-services/internal/votes"
	"github.com/redis/go-redis/v9"
)

// NewLocker builds the vote locker selected by VOTE_LOCK.
func NewLocker(cfg config.VotesConfig, rdb *redis.Client) (votes.Locker, error) {
	switch cfg.LockMode {
	case config.VoteLockMemory:
		return votes.NewMemoryLocker(cfg.LockWait), nil
	case config.VoteLockRedis:
		if rdb == nil {
			return nil, errors.New("VOTE_LOCK=redis requires REDIS_HOST")
		}
		return votes.NewRedisLocker(rdb, "lock:", cfg.LockTTL, cfg.LockWait), nil
	default:
		return votes.NoopLocker{}, nil
	}
}
