package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"libdb.so/lirc"
)

// RedisShadow keeps the last button press of every remote in a Redis hash
// named lirc:shadow:<remote>.
type RedisShadow struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisShadow creates a shadow. A zero ttl keeps the hashes forever.
func NewRedisShadow(client *redis.Client, ttl time.Duration) *RedisShadow {
	return &RedisShadow{client: client, ttl: ttl}
}

// ShadowKey returns the hash key holding the state of remote.
func ShadowKey(remote string) string {
	return "lirc:shadow:" + remote
}

// Record implements [Shadow].
func (s *RedisShadow) Record(ctx context.Context, ev lirc.ButtonPress, at time.Time) error {
	key := ShadowKey(ev.RemoteControlName)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"button", ev.ButtonName,
			"code", fmt.Sprintf("%016x", ev.Code),
			"repeat", ev.RepeatCount,
			"ts", at.Unix())
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

// Last returns the last recorded press of remote. ok is false if none is
// recorded.
func (s *RedisShadow) Last(ctx context.Context, remote string) (fields map[string]string, ok bool, err error) {
	fields, err = s.client.HGetAll(ctx, ShadowKey(remote)).Result()
	if err != nil {
		return nil, false, err
	}
	return fields, len(fields) > 0, nil
}
