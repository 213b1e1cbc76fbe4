// Package rediskv keeps the session KV in Redis so several processes on a host (or a
// fleet of CLI containers) share one login.
package rediskv

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 500 * time.Millisecond

var _ session.KV = (*Store)(nil)

// Client is the part of the go-redis API the store needs. MGET, MSET and multi-key DEL
// are each a single atomic command.
type Client interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	MSet(ctx context.Context, values ...interface{}) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Store struct {
	client  Client
	prefix  string
	timeout time.Duration
}

func New(client Client, prefix string) *Store {
	return &Store{
		client:  client,
		prefix:  prefix,
		timeout: defaultTimeout,
	}
}

// Dial connects to addr and verifies the connection with PING
func Dial(ctx context.Context, addr, password string, db int, prefix string) (*Store, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrapf(err, "rediskv.Dial: ping %s", addr)
	}
	return New(client, prefix), client, nil
}

func (s *Store) GetMany(keys ...string) (map[string]string, error) {
	found := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	vals, err := s.client.MGet(ctx, s.prefixed(keys)...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "rediskv: MGET")
	}
	for i, v := range vals {
		if v == nil || i >= len(keys) {
			continue
		}
		switch value := v.(type) {
		case string:
			found[keys[i]] = value
		default:
			found[keys[i]] = fmt.Sprint(value)
		}
	}
	return found, nil
}

func (s *Store) SetMany(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	pairs := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, s.prefix+k, v)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return errors.Wrapf(s.client.MSet(ctx, pairs...).Err(), "rediskv: MSET")
}

func (s *Store) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return errors.Wrapf(s.client.Del(ctx, s.prefixed(keys)...).Err(), "rediskv: DEL")
}

func (s *Store) prefixed(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = s.prefix + k
	}
	return out
}
