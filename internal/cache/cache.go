package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tsalo/puzzlepress/internal/domain"
)

// Verdicts caches validation outcomes in Redis so repeated runs over the
// same corpus skip the board replay. Only accepted puzzles are stored;
// rejections are cheap enough to recompute.
type Verdicts struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis. ttl bounds how long a verdict stays valid; a
// non-positive ttl falls back to 24 hours.
func New(redisURL string, ttl time.Duration) (*Verdicts, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for verdict cache")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Verdicts{rdb: rdb, ttl: ttl}, nil
}

func (v *Verdicts) Close() error {
	if v == nil || v.rdb == nil {
		return nil
	}
	return v.rdb.Close()
}

// Get returns the cached verdict for a record under a criterion key, or
// nil on a miss. fingerprint is the record's content identity
// (domain.PuzzleRecord.Fingerprint), not the bare puzzle ID: distinct
// records sharing an ID must never hit each other's verdicts. A nil
// receiver always misses, so callers can treat the cache as optional.
func (v *Verdicts) Get(ctx context.Context, criterionKey, fingerprint string) (*domain.ValidatedPuzzle, error) {
	if v == nil || v.rdb == nil {
		return nil, nil
	}
	raw, err := v.rdb.Get(ctx, verdictKey(criterionKey, fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verdict get: %w", err)
	}
	var p domain.ValidatedPuzzle
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("verdict decode: %w", err)
	}
	return &p, nil
}

// Put stores an accepted puzzle under a criterion key and the source
// record's fingerprint.
func (v *Verdicts) Put(ctx context.Context, criterionKey, fingerprint string, p domain.ValidatedPuzzle) error {
	if v == nil || v.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("verdict encode: %w", err)
	}
	return v.rdb.Set(ctx, verdictKey(criterionKey, fingerprint), raw, v.ttl).Err()
}

func verdictKey(criterionKey, fingerprint string) string {
	return "pzl:verdict:" + criterionKey + ":" + fingerprint
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
