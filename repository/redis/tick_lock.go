package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redislib.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TickLock keeps reminder scans from overlapping across service instances.
type TickLock struct {
	client redislib.UniversalClient
	key    string
	ttl    time.Duration
}

func NewTickLock(client redislib.UniversalClient, key string, ttl time.Duration) *TickLock {
	if key == "" {
		key = "planner:reminders:tick"
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &TickLock{client: client, key: key, ttl: ttl}
}

// Acquire returns a release func when the lock was taken and ok=false when another holder owns it.
func (l *TickLock) Acquire(ctx context.Context) (release func(), ok bool, err error) {
	token := uuid.NewString()
	ok, err = l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil || !ok {
		return nil, ok, err
	}
	release = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
	}
	return release, true, nil
}
