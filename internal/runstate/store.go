package runstate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"avvatracker/internal/model"
)

const (
	lockKey   = "avvatracker:scrape:lock"
	reportKey = "avvatracker:scrape:last"
	reportTTL = 7 * 24 * time.Hour
)

// ErrLocked means another scrape holds the lock.
var ErrLocked = errors.New("another scrape is running")

// Deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store keeps cross-process scrape state in Redis: a lock so that only one
// scrape runs at a time, and the last report.
type Store struct {
	Client *redis.Client
}

// NewClient accepts either a redis:// URL or a bare host:port.
func NewClient(addr string) (*redis.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// Lock is a held scrape lock.
type Lock struct {
	store *Store
	token string
}

// Acquire takes the scrape lock for ttl. It returns ErrLocked when the lock
// is held elsewhere.
func (s *Store) Acquire(ctx context.Context, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := s.Client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{store: s, token: token}, nil
}

func (l *Lock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.store.Client, []string{lockKey}, l.token).Err()
}

func (s *Store) SaveReport(ctx context.Context, r *model.Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, reportKey, b, reportTTL).Err()
}

// LastReport returns nil, nil when no report was saved.
func (s *Store) LastReport(ctx context.Context) (*model.Report, error) {
	val, err := s.Client.Get(ctx, reportKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var r model.Report
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
