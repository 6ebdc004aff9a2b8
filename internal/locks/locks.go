package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	ErrLockNotAcquired = errors.New("could not acquire lock")
	ErrLockNotOwned    = errors.New("lock not owned by this client")
)

// Lock is a Redis-backed mutex held by one process at a time. The token
// guards against releasing a lock that expired and was re-acquired by
// someone else.
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// Manager hands out distributed locks. With no Redis configured Acquire
// succeeds immediately; single-instance deployments then rely on the
// database-level status guards alone.
type Manager struct {
	client *redis.Client
	prefix string
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client, prefix: "lock"}
}

// Acquire takes the lock for the named resource or fails fast with
// ErrLockNotAcquired while someone else holds it.
func (m *Manager) Acquire(ctx context.Context, resource string, ttl time.Duration) (*Lock, error) {
	if m.client == nil {
		return &Lock{}, nil
	}

	key := fmt.Sprintf("%s:%s", m.prefix, resource)
	token := uuid.New().String()

	ok, err := m.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return &Lock{client: m.client, key: key, token: token}, nil
}

// release script: delete only while we still own the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release frees the lock if this client still owns it.
func (l *Lock) Release(ctx context.Context) error {
	if l.client == nil {
		return nil
	}

	res, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return err
	}
	if res == 0 {
		return ErrLockNotOwned
	}
	return nil
}
