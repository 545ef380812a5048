package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

const (
	idempPrefix = "fsl:idemp:"
	// pendingMarker is stored while the first request for a key is in flight.
	pendingMarker = "pending"
)

// Idempotency stores replies to mutating HTTP requests keyed by the
// client's Idempotency-Key.
type Idempotency struct {
	client *redis.Client
}

func NewIdempotency(client *redis.Client) *Idempotency {
	return &Idempotency{client: client}
}

type StoredReply struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Reserve claims key for the caller. It returns false when another request
// already holds or has completed the key.
func (i *Idempotency) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	res := i.client.SetNX(ctx, idempPrefix+key, pendingMarker, ttl)
	return res.Val(), res.Err()
}

// Get returns the stored reply, or nil when the key is unknown or the
// first request has not finished yet.
func (i *Idempotency) Get(ctx context.Context, key string) (*StoredReply, error) {
	val, err := i.client.Get(ctx, idempPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) || string(val) == pendingMarker {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get idempotency key")
	}
	var reply StoredReply
	if err := json.Unmarshal(val, &reply); err != nil {
		return nil, errors.Wrap(err, "decode idempotent reply")
	}
	return &reply, nil
}

func (i *Idempotency) Save(ctx context.Context, key string, reply StoredReply, ttl time.Duration) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	return i.client.Set(ctx, idempPrefix+key, data, ttl).Err()
}

// Release drops a reservation whose request failed, so the client may retry.
func (i *Idempotency) Release(ctx context.Context, key string) error {
	return i.client.Del(ctx, idempPrefix+key).Err()
}
