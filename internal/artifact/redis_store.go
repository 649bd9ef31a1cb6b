package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	xerrors "Starfish-Go/internal/errors"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per network, "<prefix>:<network>", whose fields
// are contract names and whose values are JSON records.
type RedisStore struct {
	client *goredis.Client
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *goredis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "starfish:artifacts"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(network string) string {
	return s.prefix + ":" + network
}

// Lookup implements Store.
func (s *RedisStore) Lookup(ctx context.Context, name, network string) (Record, error) {
	raw, err := s.client.HGet(ctx, s.key(network), name).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Record{}, notFound(name, network)
	}
	if err != nil {
		return Record{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "Redis 读取构件失败")
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "解析 Redis 构件失败")
	}
	rec.Name = name
	rec.Network = network
	return rec, nil
}

// LookupAll implements BulkStore.
func (s *RedisStore) LookupAll(ctx context.Context, network string) ([]Record, error) {
	values, err := s.client.HGetAll(ctx, s.key(network)).Result()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "Redis 读取构件失败")
	}
	out := make([]Record, 0, len(values))
	for name, raw := range values {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "解析 Redis 构件失败")
		}
		rec.Name = name
		rec.Network = network
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save publishes an artifact.
func (s *RedisStore) Save(ctx context.Context, name, network string, rec Record) error {
	rec.Name = name
	rec.Network = network
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key(network), name, raw).Err(); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "Redis 写入构件失败")
	}
	return nil
}
