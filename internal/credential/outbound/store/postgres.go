package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
	"github.com/shandysiswandi/gofactor/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Schema:
//
//	CREATE TABLE credentials (
//	    user_id          TEXT PRIMARY KEY,
//	    state            SMALLINT NOT NULL,
//	    pending_secret   BYTEA,
//	    confirmed_secret BYTEA,
//	    updated_at       TIMESTAMPTZ NOT NULL
//	);

const (
	queryGetCredential = `
		SELECT state, pending_secret, confirmed_secret, updated_at
		FROM credentials
		WHERE user_id = $1`

	querySaveEnrollment = `
		INSERT INTO credentials (user_id, state, pending_secret, confirmed_secret, updated_at)
		VALUES ($1, $2, $3, NULL, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET state = EXCLUDED.state,
		    pending_secret = EXCLUDED.pending_secret,
		    confirmed_secret = NULL,
		    updated_at = EXCLUDED.updated_at`

	queryPromoteCredential = `
		UPDATE credentials
		SET state = $2,
		    confirmed_secret = pending_secret,
		    pending_secret = NULL,
		    updated_at = $3
		WHERE user_id = $1
		  AND state = $4
		  AND pending_secret = $5`

	// writeMaxRetries bounds retries for serialization failures and deadlocks.
	writeMaxRetries = 3
)

// Postgres is a Store backed by a single credentials table.
type Postgres struct {
	conn    *pgxpool.Pool
	timeout time.Duration
	ins     instrument.Instrumentation
}

func NewPostgres(conn *pgxpool.Pool, timeout time.Duration, ins instrument.Instrumentation) *Postgres {
	if ins == nil {
		ins = instrument.NewNoop()
	}

	return &Postgres{
		conn:    conn,
		timeout: timeout,
		ins:     ins,
	}
}

func (s *Postgres) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.outbound.store").Start(ctx, name)
}

func (s *Postgres) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// - 23505 unique violation → goerror.ErrConflict
// - 40001 serialization_failure → retryable
// - 40P01 deadlock_detected → retryable
func (s *Postgres) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return goerror.ErrConflict
		case "40001", "40P01":
			return retry.RetryableError(err)
		}
	}

	return err
}

func (s *Postgres) GetCredential(ctx context.Context, userID string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetCredential")
	defer func() { s.endSpan(span, err) }()

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	cred := entity.Credential{UserID: userID}
	var state int16

	row := s.conn.QueryRow(ctx, queryGetCredential, userID)
	if err = row.Scan(&state, &cred.PendingSecret, &cred.ConfirmedSecret, &cred.UpdatedAt); err != nil {
		return nil, s.mapError(err)
	}

	cred.State = entity.CredentialState(state).Ensure()
	return &cred, nil
}

func (s *Postgres) SaveEnrollment(ctx context.Context, cred entity.Credential) (err error) {
	ctx, span := s.startSpan(ctx, "SaveEnrollment")
	defer func() { s.endSpan(span, err) }()

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	backoff := retry.WithMaxRetries(writeMaxRetries, retry.NewConstant(25*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, execErr := s.conn.Exec(ctx, querySaveEnrollment,
			cred.UserID, int16(cred.State), cred.PendingSecret, cred.UpdatedAt)
		return s.mapError(execErr)
	})
	return err
}

// PromoteCredential confirms the pending secret only while it still equals
// verifiedPending, so a concurrent re-enrollment leaves the row untouched.
func (s *Postgres) PromoteCredential(ctx context.Context, userID string, verifiedPending []byte, promotedAt time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "PromoteCredential")
	defer func() { s.endSpan(span, err) }()

	ctx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	var promoted bool
	backoff := retry.WithMaxRetries(writeMaxRetries, retry.NewConstant(25*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		tag, execErr := s.conn.Exec(ctx, queryPromoteCredential,
			userID,
			int16(entity.CredentialStateConfirmed),
			promotedAt.UTC(),
			int16(entity.CredentialStatePending),
			verifiedPending,
		)
		if execErr != nil {
			return s.mapError(execErr)
		}

		promoted = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, err
	}

	return promoted, nil
}

// Close implements Store. The underlying pool is shared and closed by the
// application, not here.
func (s *Postgres) Close() error {
	return nil
}
