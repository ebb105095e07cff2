package store

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
	"github.com/shandysiswandi/gofactor/internal/pkg/instrument"
	"go.opentelemetry.io/otel/trace"
)

// Memory is a Store backed by an in-process map. It is intended for local
// development and tests; records do not survive a restart.
type Memory struct {
	mu    sync.RWMutex
	creds map[string]entity.Credential
	ins   instrument.Instrumentation
}

func NewMemory(ins instrument.Instrumentation) *Memory {
	if ins == nil {
		ins = instrument.NewNoop()
	}

	return &Memory{
		creds: make(map[string]entity.Credential),
		ins:   ins,
	}
}

func (s *Memory) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.outbound.store").Start(ctx, name)
}

func (s *Memory) GetCredential(ctx context.Context, userID string) (*entity.Credential, error) {
	_, span := s.startSpan(ctx, "GetCredential")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	out := cred
	out.PendingSecret = append([]byte(nil), cred.PendingSecret...)
	out.ConfirmedSecret = append([]byte(nil), cred.ConfirmedSecret...)
	return &out, nil
}

func (s *Memory) SaveEnrollment(ctx context.Context, cred entity.Credential) error {
	_, span := s.startSpan(ctx, "SaveEnrollment")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	cred.PendingSecret = append([]byte(nil), cred.PendingSecret...)
	cred.ConfirmedSecret = nil
	s.creds[cred.UserID] = cred
	return nil
}

func (s *Memory) PromoteCredential(ctx context.Context, userID string, verifiedPending []byte, promotedAt time.Time) (bool, error) {
	_, span := s.startSpan(ctx, "PromoteCredential")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[userID]
	if !ok {
		return false, nil
	}
	if cred.State.Ensure() != entity.CredentialStatePending || len(cred.PendingSecret) == 0 {
		return false, nil
	}
	if !bytes.Equal(cred.PendingSecret, verifiedPending) {
		return false, nil
	}

	cred.State = entity.CredentialStateConfirmed
	cred.ConfirmedSecret = cred.PendingSecret
	cred.PendingSecret = nil
	cred.UpdatedAt = promotedAt
	s.creds[userID] = cred
	return true, nil
}

// Close implements Store.
func (s *Memory) Close() error {
	return nil
}
