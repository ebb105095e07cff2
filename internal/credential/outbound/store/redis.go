package store

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
	"github.com/shandysiswandi/gofactor/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	redisKeyPrefix = "credential:"

	fieldState           = "state"
	fieldPendingSecret   = "pending_secret"
	fieldConfirmedSecret = "confirmed_secret"
	fieldUpdatedAt       = "updated_at"

	// promoteMaxRetries bounds optimistic retries when a concurrent write
	// invalidates the WATCH during promotion.
	promoteMaxRetries = 5
)

// Redis is a Store backed by a Redis hash per user.
type Redis struct {
	conn    *redis.Client
	timeout time.Duration
	ins     instrument.Instrumentation
}

func NewRedis(conn *redis.Client, timeout time.Duration, ins instrument.Instrumentation) *Redis {
	if ins == nil {
		ins = instrument.NewNoop()
	}

	return &Redis{
		conn:    conn,
		timeout: timeout,
		ins:     ins,
	}
}

func (s *Redis) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.outbound.store").Start(ctx, name)
}

func (s *Redis) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (s *Redis) GetCredential(ctx context.Context, userID string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetCredential")
	defer func() { s.endSpan(span, err) }()

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	fields, err := s.conn.HGetAll(ctx, redisKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, goerror.ErrNotFound
	}

	return credentialFromFields(userID, fields), nil
}

func (s *Redis) SaveEnrollment(ctx context.Context, cred entity.Credential) (err error) {
	ctx, span := s.startSpan(ctx, "SaveEnrollment")
	defer func() { s.endSpan(span, err) }()

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	key := redisKey(cred.UserID)
	pipe := s.conn.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		fieldState, int16(cred.State),
		fieldPendingSecret, cred.PendingSecret,
		fieldUpdatedAt, cred.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)

	_, err = pipe.Exec(ctx)
	return err
}

func (s *Redis) PromoteCredential(ctx context.Context, userID string, verifiedPending []byte, promotedAt time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "PromoteCredential")
	defer func() { s.endSpan(span, err) }()

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	key := redisKey(userID)
	promoted := false

	txn := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}

		cred := credentialFromFields(userID, fields)
		if cred.State.Ensure() != entity.CredentialStatePending || len(cred.PendingSecret) == 0 {
			return nil
		}
		// A re-enrollment may have replaced the pending secret after the
		// caller verified it. Never confirm a secret that was not verified.
		if !bytes.Equal(cred.PendingSecret, verifiedPending) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldState, int16(entity.CredentialStateConfirmed),
				fieldConfirmedSecret, cred.PendingSecret,
				fieldUpdatedAt, promotedAt.UTC().Format(time.RFC3339Nano),
			)
			pipe.HDel(ctx, key, fieldPendingSecret)
			return nil
		})
		if err != nil {
			return err
		}

		promoted = true
		return nil
	}

	backoff := retry.WithMaxRetries(promoteMaxRetries, retry.NewConstant(10*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		promoted = false
		if werr := s.conn.Watch(ctx, txn, key); werr != nil {
			if errors.Is(werr, redis.TxFailedErr) {
				return retry.RetryableError(werr)
			}
			return werr
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return promoted, nil
}

// Close implements Store. The underlying client is shared and closed by the
// application, not here.
func (s *Redis) Close() error {
	return nil
}

func credentialFromFields(userID string, fields map[string]string) *entity.Credential {
	cred := &entity.Credential{UserID: userID}

	if v, ok := fields[fieldState]; ok {
		if n, err := strconv.ParseInt(v, 10, 16); err == nil {
			cred.State = entity.CredentialState(n).Ensure()
		}
	}
	if v, ok := fields[fieldPendingSecret]; ok && v != "" {
		cred.PendingSecret = []byte(v)
	}
	if v, ok := fields[fieldConfirmedSecret]; ok && v != "" {
		cred.ConfirmedSecret = []byte(v)
	}
	if v, ok := fields[fieldUpdatedAt]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			cred.UpdatedAt = t
		}
	}

	return cred
}
