package guard

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/draftdesk/draftdesk/backend/go-services/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only when it still carries our token, so an
// expired lease that was re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Guard shared by all replicas. Each critical section is a
// "<prefix><articleID>" key set with NX and a TTL that bounds how long a crashed
// holder can block the article.
type Redis struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	retries int
	backoff time.Duration
	log     *logger.Scoped
}

// NewRedis creates a Redis-backed guard. Prefix may be empty.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, retries int) *Redis {
	if prefix == "" {
		prefix = "article:edit:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, retries: retries, backoff: 10 * time.Millisecond, log: logger.With("guard")}
}

func (r *Redis) key(articleID string) string {
	return r.prefix + articleID
}

func (r *Redis) Acquire(ctx context.Context, articleID string) (func(), error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	token := hex.EncodeToString(b)
	key := r.key(articleID)

	wait := r.backoff
	for attempt := 0; ; attempt++ {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire edit guard: %w", err)
		}
		if ok {
			break
		}
		if attempt >= r.retries {
			r.log.Debugf("guard busy for article %s after %d attempts", articleID, attempt+1)
			return nil, ErrBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}

	return func() {
		// release on a fresh context: the request context may already be done
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, r.client, []string{key}, token).Err(); err != nil {
			r.log.Warnf("release edit guard for article %s: %v", articleID, err)
		}
	}, nil
}
