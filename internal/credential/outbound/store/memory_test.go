package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

func pendingCredential(userID, secret string) entity.Credential {
	return entity.Credential{
		UserID:        userID,
		State:         entity.CredentialStatePending,
		PendingSecret: []byte(secret),
		UpdatedAt:     time.Now(),
	}
}

func TestMemory_GetCredential_NotFound(t *testing.T) {
	s := NewMemory(nil)

	_, err := s.GetCredential(context.Background(), "nobody")
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("GetCredential() error = %v, want ErrNotFound", err)
	}
}

func TestMemory_SaveEnrollment_OverwritesConfirmed(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	if err := s.SaveEnrollment(ctx, pendingCredential("u1", "first")); err != nil {
		t.Fatalf("SaveEnrollment() error = %v", err)
	}
	if ok, err := s.PromoteCredential(ctx, "u1", []byte("first"), time.Now()); err != nil || !ok {
		t.Fatalf("PromoteCredential() = %v, %v, want true, nil", ok, err)
	}

	if err := s.SaveEnrollment(ctx, pendingCredential("u1", "second")); err != nil {
		t.Fatalf("SaveEnrollment() error = %v", err)
	}

	cred, err := s.GetCredential(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if cred.State != entity.CredentialStatePending {
		t.Errorf("State = %v, want pending", cred.State)
	}
	if string(cred.PendingSecret) != "second" {
		t.Errorf("PendingSecret = %q, want %q", cred.PendingSecret, "second")
	}
	if cred.ConfirmedSecret != nil {
		t.Errorf("ConfirmedSecret = %q, want nil", cred.ConfirmedSecret)
	}
}

func TestMemory_PromoteCredential(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	if ok, err := s.PromoteCredential(ctx, "absent", []byte("seed"), time.Now()); err != nil || ok {
		t.Fatalf("PromoteCredential(absent) = %v, %v, want false, nil", ok, err)
	}

	if err := s.SaveEnrollment(ctx, pendingCredential("u1", "seed")); err != nil {
		t.Fatalf("SaveEnrollment() error = %v", err)
	}

	promotedAt := time.Now().Add(time.Minute)
	ok, err := s.PromoteCredential(ctx, "u1", []byte("seed"), promotedAt)
	if err != nil || !ok {
		t.Fatalf("PromoteCredential() = %v, %v, want true, nil", ok, err)
	}

	cred, err := s.GetCredential(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if cred.State != entity.CredentialStateConfirmed {
		t.Errorf("State = %v, want confirmed", cred.State)
	}
	if string(cred.ConfirmedSecret) != "seed" {
		t.Errorf("ConfirmedSecret = %q, want %q", cred.ConfirmedSecret, "seed")
	}
	if cred.PendingSecret != nil {
		t.Errorf("PendingSecret = %q, want nil", cred.PendingSecret)
	}
	if !cred.UpdatedAt.Equal(promotedAt) {
		t.Errorf("UpdatedAt = %v, want promote timestamp %v", cred.UpdatedAt, promotedAt)
	}

	// Second promote loses: the credential is no longer pending.
	if ok, err := s.PromoteCredential(ctx, "u1", []byte("seed"), time.Now()); err != nil || ok {
		t.Fatalf("PromoteCredential() second = %v, %v, want false, nil", ok, err)
	}
}

func TestMemory_PromoteCredential_StaleSecret(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	if err := s.SaveEnrollment(ctx, pendingCredential("u1", "first")); err != nil {
		t.Fatalf("SaveEnrollment() error = %v", err)
	}
	// A second enrollment replaces the pending secret. A promote still
	// carrying the first secret must refuse instead of confirming the second.
	if err := s.SaveEnrollment(ctx, pendingCredential("u1", "second")); err != nil {
		t.Fatalf("SaveEnrollment() error = %v", err)
	}

	if ok, err := s.PromoteCredential(ctx, "u1", []byte("first"), time.Now()); err != nil || ok {
		t.Fatalf("PromoteCredential(stale) = %v, %v, want false, nil", ok, err)
	}

	cred, err := s.GetCredential(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if cred.State != entity.CredentialStatePending {
		t.Errorf("State = %v, want still pending", cred.State)
	}
	if string(cred.PendingSecret) != "second" {
		t.Errorf("PendingSecret = %q, want %q", cred.PendingSecret, "second")
	}
	if cred.ConfirmedSecret != nil {
		t.Errorf("ConfirmedSecret = %q, want nil", cred.ConfirmedSecret)
	}

	if ok, err := s.PromoteCredential(ctx, "u1", []byte("second"), time.Now()); err != nil || !ok {
		t.Fatalf("PromoteCredential(current) = %v, %v, want true, nil", ok, err)
	}
}

func TestMemory_PromoteCredential_Concurrent(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	if err := s.SaveEnrollment(ctx, pendingCredential("u1", "seed")); err != nil {
		t.Fatalf("SaveEnrollment() error = %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, racers)

	for range racers {
		wg.Go(func() {
			ok, err := s.PromoteCredential(ctx, "u1", []byte("seed"), time.Now())
			if err != nil {
				t.Errorf("PromoteCredential() error = %v", err)
				return
			}
			wins <- ok
		})
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("concurrent promotes won = %d, want exactly 1", won)
	}
}
