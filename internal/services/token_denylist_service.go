package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const denylistPrefix = "denylist:"

// ErrRevocationUnavailable is returned when no redis is configured to hold
// revoked token ids.
var ErrRevocationUnavailable = errors.New("token revocation is not available")

// Denylist stores revoked token ids in redis until the token would have
// expired anyway.
type Denylist struct {
	rdb *redis.Client
}

func NewDenylist(rdb *redis.Client) *Denylist {
	return &Denylist{rdb: rdb}
}

func (d *Denylist) Add(ctx context.Context, tokenID string, expiration time.Duration) error {
	if d.rdb == nil {
		return ErrRevocationUnavailable
	}
	if expiration <= 0 {
		// Already expired; nothing left to revoke.
		return nil
	}
	return d.rdb.Set(ctx, denylistPrefix+tokenID, 1, expiration).Err()
}

// IsDenylisted reports false when redis is not configured.
func (d *Denylist) IsDenylisted(ctx context.Context, tokenID string) (bool, error) {
	if d.rdb == nil {
		return false, nil
	}
	val, err := d.rdb.Get(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}
