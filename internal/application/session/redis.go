package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"careerflow/internal/application/wizard"
	"careerflow/internal/common/database"
)

// saveScript writes ARGV[1] over KEYS[1] only while the stored session is
// open and at version ARGV[2]. ARGV[3] is the TTL in milliseconds, 0 for none.
var saveScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then return 0 end
local st = cjson.decode(cur)
if st['finished'] == true then return -1 end
if tonumber(st['version'] or 0) ~= tonumber(ARGV[2]) then return -2 end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// RedisStore keeps each session as one JSON value with a sliding TTL. The
// submit lock is a separate key set with SETNX.
type RedisStore struct {
	client  redis.Cmdable
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisStore builds a store. lockTTL bounds how long a crashed replica can
// hold a submission lock; it should exceed the submission timeout.
func NewRedisStore(client redis.Cmdable, prefix string, ttl, lockTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, lockTTL: lockTTL}
}

func (s *RedisStore) sessionKey(id string) string {
	return database.Key(s.prefix, "session", id)
}

func (s *RedisStore) lockKey(id string) string {
	return database.Key(s.prefix, "session", id, "submit")
}

func (s *RedisStore) Create(ctx context.Context, st wizard.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.sessionKey(st.ID), raw, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (wizard.State, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return wizard.State{}, ErrNotFound
	}
	if err != nil {
		return wizard.State{}, fmt.Errorf("load session: %w", err)
	}
	var st wizard.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return wizard.State{}, fmt.Errorf("decode session: %w", err)
	}
	return st, nil
}

// Save writes st at st.Version+1 and refreshes the TTL. A session that
// expired or was deleted is not recreated.
func (s *RedisStore) Save(ctx context.Context, st wizard.State) error {
	loaded := st.Version
	st.Version++
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	res, err := saveScript.Run(ctx, s.client, []string{s.sessionKey(st.ID)}, raw, loaded, s.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	switch res {
	case 0:
		return ErrNotFound
	case -1:
		return ErrClosed
	case -2:
		return ErrConflict
	}
	return nil
}

// Close stores the finished state of a submitted session. Any later Save
// sees it closed.
func (s *RedisStore) Close(ctx context.Context, st wizard.State) error {
	st.Version++
	st.Finished = true
	st.Data = nil
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := s.client.SetXX(ctx, s.sessionKey(st.ID), raw, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.sessionKey(id), s.lockKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) AcquireSubmit(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.lockKey(id), "1", s.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire submit lock: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) ReleaseSubmit(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.lockKey(id)).Err(); err != nil {
		return fmt.Errorf("release submit lock: %w", err)
	}
	return nil
}

func (s *RedisStore) IsSubmitting(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.lockKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check submit lock: %w", err)
	}
	return n > 0, nil
}
