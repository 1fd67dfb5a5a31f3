package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps each record under its own key and tracks the ids of each
// kind in an index set.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisStoreWithClient(rdb, prefix), nil
}

func NewRedisStoreWithClient(rdb *goredis.Client, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "xgtag"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) key(kind Kind, id string) string {
	return s.prefix + ":" + kind.UnitName(id)
}

func (s *RedisStore) index(kind Kind) string {
	return s.prefix + ":index:" + string(kind)
}

func (s *RedisStore) List(ctx context.Context, kind Kind) ([]Unit, []Warning, error) {
	ids, err := s.rdb.SMembers(ctx, s.index(kind)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("redis list %s: %w", kind, err)
	}
	if len(ids) == 0 {
		return []Unit{}, nil, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(kind, id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("redis list %s: %w", kind, err)
	}

	units := make([]Unit, 0, len(ids))
	var warnings []Warning
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			warnings = append(warnings, Warning{Kind: kind, Unit: kind.UnitName(ids[i]), Reason: "indexed but missing"})
			continue
		}
		units = append(units, Unit{Kind: kind, ID: ids[i], Data: []byte(str)})
	}
	return units, warnings, nil
}

func (s *RedisStore) Get(ctx context.Context, kind Kind, id string) (Unit, error) {
	if err := ValidateID(id); err != nil {
		return Unit{}, err
	}
	data, err := s.rdb.Get(ctx, s.key(kind, id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return Unit{}, fmt.Errorf("%w: %s", ErrNotFound, kind.UnitName(id))
		}
		return Unit{}, fmt.Errorf("redis get %s: %w", kind.UnitName(id), err)
	}
	return Unit{Kind: kind, ID: id, Data: data}, nil
}

func (s *RedisStore) Put(ctx context.Context, kind Kind, id string, data []byte) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.key(kind, id), data, 0)
		pipe.SAdd(ctx, s.index(kind), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put %s: %w", kind.UnitName(id), err)
	}
	return nil
}

func (s *RedisStore) DeleteAll(ctx context.Context, kind Kind) (int, error) {
	ids, err := s.rdb.SMembers(ctx, s.index(kind)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis delete %s: %w", kind, err)
	}

	deleted := int64(0)
	if len(ids) > 0 {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = s.key(kind, id)
		}
		deleted, err = s.rdb.Del(ctx, keys...).Result()
		if err != nil {
			return 0, fmt.Errorf("redis delete %s: %w", kind, err)
		}
	}
	if err := s.rdb.Del(ctx, s.index(kind)).Err(); err != nil {
		return int(deleted), fmt.Errorf("redis delete %s index: %w", kind, err)
	}
	return int(deleted), nil
}
