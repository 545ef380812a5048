package idempotency

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	redisadapter "github.com/robertarktes/flight-seat-ledger/internal/adapters/redis"
)

// ErrInFlight is returned when a request with the same key is still running.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

type Store interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (*redisadapter.StoredReply, error)
	Save(ctx context.Context, key string, reply redisadapter.StoredReply, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type Idempotency struct {
	store Store
	ttl   time.Duration
}

func NewIdempotency(store Store, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl}
}

type Response struct {
	Status int
	Result []byte
}

// Begin returns the stored response for key if the request already
// completed. Otherwise it reserves key and returns nil; the caller must then
// call Finish or Abort.
func (i *Idempotency) Begin(ctx context.Context, key string) (*Response, error) {
	ok, err := i.store.Reserve(ctx, key, i.ttl)
	if err != nil {
		return nil, errors.Wrap(err, "reserve idempotency key")
	}
	if ok {
		return nil, nil
	}
	reply, err := i.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, ErrInFlight
	}
	return &Response{Status: reply.Status, Result: reply.Body}, nil
}

func (i *Idempotency) Finish(ctx context.Context, key string, resp Response) error {
	return i.store.Save(ctx, key, redisadapter.StoredReply{Status: resp.Status, Body: resp.Result}, i.ttl)
}

func (i *Idempotency) Abort(ctx context.Context, key string) error {
	return i.store.Release(ctx, key)
}
