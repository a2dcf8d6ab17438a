package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sua-a1/cram-app-sub001/app/port"
)

// ChallengeLedger records open sign-in attempts. Close is atomic (GETDEL), so
// an attempt can be closed exactly once.
type ChallengeLedger struct {
	client redis.UniversalClient
	ns     keyspace
}

func NewChallengeLedger(client redis.UniversalClient, prefix string) port.ChallengeLedger {
	return &ChallengeLedger{client: client, ns: keyspace(prefix + ":pkce")}
}

func (l *ChallengeLedger) Open(ctx context.Context, attemptID string, ttl time.Duration) error {
	if attemptID == "" {
		return errors.New("attempt id is empty")
	}
	if err := l.client.Set(ctx, l.ns.key(attemptID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to open challenge: %w", err)
	}
	return nil
}

func (l *ChallengeLedger) Close(ctx context.Context, attemptID string) (bool, error) {
	if attemptID == "" {
		return false, nil
	}
	err := l.client.GetDel(ctx, l.ns.key(attemptID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to close challenge: %w", err)
	}
	return true, nil
}
