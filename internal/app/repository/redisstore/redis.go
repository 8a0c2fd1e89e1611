// Package redisstore keeps entitlements in Redis hashes. The admission
// precedence runs as a Lua script so it is atomic across every server
// instance sharing the same Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/repository"
)

const (
	keyPrefix = "mediaconv:entitlement:"
	indexKey  = "mediaconv:entitlements"
)

// Script status codes, the first element of every script reply.
const (
	resultMissing   = -1
	resultUnlimited = 0
	resultFreeUse   = 1
	resultCredits   = 2
	resultExhausted = 3
	resultGranted   = 4
)

// snapshot is prepended to the consume and grant scripts. Their replies carry
// the entitlement so callers never read the hash after a mutation committed.
const snapshot = `
local function snapshot(status)
  local v = redis.call('HMGET', KEYS[1], 'free', 'credits', 'unlimited', 'updated_at')
  return {status, tonumber(v[1] or '0'), tonumber(v[2] or '0'), tonumber(v[3] or '0'), tonumber(v[4] or '0')}
end
`

var consumeScript = redis.NewScript(snapshot + `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1}
end
if redis.call('HGET', KEYS[1], 'unlimited') == '1' then
  return snapshot(0)
end
local free = tonumber(redis.call('HGET', KEYS[1], 'free') or '0')
if free > 0 then
  redis.call('HINCRBY', KEYS[1], 'free', -1)
  redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
  return snapshot(1)
end
local cost = tonumber(ARGV[1])
local credits = tonumber(redis.call('HGET', KEYS[1], 'credits') or '0')
if credits >= cost then
  redis.call('HINCRBY', KEYS[1], 'credits', -cost)
  redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
  return snapshot(2)
end
return snapshot(3)
`)

var grantScript = redis.NewScript(snapshot + `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {-1}
end
redis.call('HINCRBY', KEYS[1], 'credits', ARGV[1])
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return snapshot(4)
`)

var setUnlimitedScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
redis.call('HSET', KEYS[1], 'unlimited', ARGV[1], 'updated_at', ARGV[2])
return 1
`)

type Store struct {
	client redis.UniversalClient
	now    func() time.Time
}

var _ repository.EntitlementDAO = (*Store)(nil)

// Options locate the Redis server.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return New(client), nil
}

func New(client redis.UniversalClient) *Store {
	return &Store{client: client, now: time.Now}
}

func key(id string) string {
	return keyPrefix + id
}

func (s *Store) Get(ctx context.Context, id string) (*model.Entitlement, error) {
	fields, err := s.client.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL: %w", err)
	}
	if len(fields) == 0 {
		return nil, apperrors.ErrUserNotFound
	}
	return decode(id, fields)
}

// Consume runs the precedence in one script. The reply carries the
// entitlement as left by the script, so a committed charge is always
// returned together with its entitlement.
func (s *Store) Consume(ctx context.Context, id string, cost int64) (model.Charge, *model.Entitlement, error) {
	reply, err := consumeScript.Run(ctx, s.client, []string{key(id)}, cost, s.now().Unix()).Int64Slice()
	if err != nil {
		return model.ChargeNone, nil, fmt.Errorf("consume script: %w", err)
	}
	status, e, err := decodeReply(id, reply)
	if err != nil {
		return model.ChargeNone, nil, err
	}

	switch status {
	case resultUnlimited:
		return model.ChargeUnlimited, e, nil
	case resultFreeUse:
		return model.ChargeFreeUse, e, nil
	case resultCredits:
		return model.ChargeCredits, e, nil
	case resultExhausted:
		return model.ChargeNone, e, nil
	default:
		return model.ChargeNone, nil, fmt.Errorf("unexpected consume result %d", status)
	}
}

func (s *Store) Upsert(ctx context.Context, e model.Entitlement) error {
	if e.FreeUsesRemaining < 0 || e.CreditBalance < 0 {
		return fmt.Errorf("entitlement counters cannot be negative")
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key(e.ID),
			"free", e.FreeUsesRemaining,
			"credits", e.CreditBalance,
			"unlimited", boolFlag(e.Unlimited),
			"updated_at", s.now().Unix())
		pipe.SAdd(ctx, indexKey, e.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis upsert: %w", err)
	}
	return nil
}

func (s *Store) Grant(ctx context.Context, id string, credits int64) (*model.Entitlement, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("credits to grant must be positive")
	}
	reply, err := grantScript.Run(ctx, s.client, []string{key(id)}, credits, s.now().Unix()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("grant script: %w", err)
	}
	status, e, err := decodeReply(id, reply)
	if err != nil {
		return nil, err
	}
	if status != resultGranted {
		return nil, fmt.Errorf("unexpected grant result %d", status)
	}
	return e, nil
}

func (s *Store) SetUnlimited(ctx context.Context, id string, unlimited bool) error {
	res, err := setUnlimitedScript.Run(ctx, s.client, []string{key(id)}, boolFlag(unlimited), s.now().Unix()).Int()
	if err != nil {
		return fmt.Errorf("set unlimited script: %w", err)
	}
	if res == resultMissing {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]model.Entitlement, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SMEMBERS: %w", err)
	}
	sort.Strings(ids)

	out := make([]model.Entitlement, 0, len(ids))
	for _, id := range ids {
		e, err := s.Get(ctx, id)
		if errors.Is(err, apperrors.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func decode(id string, fields map[string]string) (*model.Entitlement, error) {
	e := &model.Entitlement{ID: id, Unlimited: fields["unlimited"] == "1"}
	var err error
	if v := fields["free"]; v != "" {
		if e.FreeUsesRemaining, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("decode free uses: %w", err)
		}
	}
	if v := fields["credits"]; v != "" {
		if e.CreditBalance, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("decode credits: %w", err)
		}
	}
	if v := fields["updated_at"]; v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode updated_at: %w", err)
		}
		e.UpdatedAt = time.Unix(ts, 0).UTC()
	}
	return e, nil
}

// decodeReply reads {status, free, credits, unlimited, updated_at}. A
// missing entitlement replies with the status alone.
func decodeReply(id string, reply []int64) (int64, *model.Entitlement, error) {
	if len(reply) == 0 {
		return 0, nil, fmt.Errorf("empty script reply")
	}
	status := reply[0]
	if status == resultMissing {
		return status, nil, apperrors.ErrUserNotFound
	}
	if len(reply) != 5 {
		return status, nil, fmt.Errorf("malformed script reply of length %d", len(reply))
	}
	return status, &model.Entitlement{
		ID:                id,
		FreeUsesRemaining: int(reply[1]),
		CreditBalance:     reply[2],
		Unlimited:         reply[3] == 1,
		UpdatedAt:         time.Unix(reply[4], 0).UTC(),
	}, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
