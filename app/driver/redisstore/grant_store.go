package redisstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

const codeBytes = 32

// GrantStore holds one-time authorization codes as JSON under a random key.
type GrantStore struct {
	client redis.UniversalClient
	ns     keyspace
}

func NewGrantStore(client redis.UniversalClient, prefix string) port.GrantStore {
	return &GrantStore{client: client, ns: keyspace(prefix + ":grant")}
}

// Save assigns grant.Code when it is empty and stores the grant for ttl.
func (s *GrantStore) Save(ctx context.Context, grant *domain.AuthGrant, ttl time.Duration) error {
	if grant.Code == "" {
		code, err := newCode()
		if err != nil {
			return err
		}
		grant.Code = code
	}
	if grant.Identity == nil {
		grant.Identity = grant.Session.Identity
	}

	payload, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("failed to encode grant: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.ns.key(grant.Code), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save grant: %w", err)
	}
	if !ok {
		return errors.New("authorization code collision")
	}
	return nil
}

func (s *GrantStore) Redeem(ctx context.Context, code string) (*domain.AuthGrant, error) {
	if code == "" {
		return nil, domain.ErrGrantNotFound
	}

	payload, err := s.client.GetDel(ctx, s.ns.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrGrantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to redeem grant: %w", err)
	}

	var grant domain.AuthGrant
	if err := json.Unmarshal(payload, &grant); err != nil {
		return nil, fmt.Errorf("failed to decode grant: %w", err)
	}
	grant.Code = code
	if grant.Session.Identity == nil {
		grant.Session.Identity = grant.Identity
	}
	return &grant, nil
}

func newCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
