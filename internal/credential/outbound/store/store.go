package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/instrument"
)

const (
	// DriverMemory selects the in-process map backend.
	DriverMemory = "memory"
	// DriverRedis selects the Redis backend.
	DriverRedis = "redis"
	// DriverPostgres selects the PostgreSQL backend.
	DriverPostgres = "postgres"
)

// ErrUnknownDriver indicates an unsupported store driver.
var ErrUnknownDriver = errors.New("store: unknown driver")

// Store persists per-user credential records.
//
// Implementations must make PromoteCredential atomic per user so concurrent
// confirms cannot both win. The promote only succeeds while the stored
// pending secret still equals verifiedPending, so a re-enrollment that lands
// between verify and promote cannot get its unverified secret confirmed.
type Store interface {
	io.Closer

	GetCredential(ctx context.Context, userID string) (*entity.Credential, error)
	SaveEnrollment(ctx context.Context, cred entity.Credential) error
	PromoteCredential(ctx context.Context, userID string, verifiedPending []byte, promotedAt time.Time) (bool, error)
}

// Config groups dependencies for the supported store backends.
type Config struct {
	// PostgresConn is the pgx pool used by the postgres driver.
	PostgresConn *pgxpool.Pool
	// RedisConn is the client used by the redis driver.
	RedisConn *redis.Client
	// OpTimeout bounds each store operation. Zero means no extra deadline.
	OpTimeout time.Duration
	// Instrument provides tracing helpers.
	Instrument instrument.Instrumentation
}

// NewFromDriver constructs a Store implementation by driver name.
func NewFromDriver(driver string, cfg Config) (Store, error) {
	switch strings.TrimSpace(driver) {
	case DriverMemory:
		return NewMemory(cfg.Instrument), nil
	case DriverRedis:
		if cfg.RedisConn == nil {
			return nil, errors.New("store: redis driver requires a redis connection")
		}
		return NewRedis(cfg.RedisConn, cfg.OpTimeout, cfg.Instrument), nil
	case DriverPostgres:
		if cfg.PostgresConn == nil {
			return nil, errors.New("store: postgres driver requires a database connection")
		}
		return NewPostgres(cfg.PostgresConn, cfg.OpTimeout, cfg.Instrument), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
