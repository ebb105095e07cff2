package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

func pendingAlice() entity.Credential {
	return entity.Credential{
		UserID:        "alice",
		State:         entity.CredentialStatePending,
		PendingSecret: []byte(testSecret),
	}
}

func TestUsecase_Confirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.put(pendingAlice())

	out, err := f.uc.Confirm(ctx, ConfirmInput{
		UserID: "alice",
		Code:   f.codeAt(t, testSecret, testNow),
	})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if !out.Confirmed {
		t.Fatal("Confirmed = false, want true")
	}

	cred, _ := f.store.get("alice")
	if cred.State != entity.CredentialStateConfirmed {
		t.Errorf("stored state = %v, want confirmed", cred.State)
	}
	if string(cred.ConfirmedSecret) != testSecret {
		t.Error("confirmed secret was not promoted from pending")
	}
	if cred.PendingSecret != nil {
		t.Error("pending secret survived promotion")
	}

	if err := f.gr.Wait(); err != nil {
		t.Fatalf("goroutine wait error = %v", err)
	}
	if got := f.msgr.confirmedCount(); got != 1 {
		t.Errorf("confirmed events = %d, want 1", got)
	}
}

func TestUsecase_Confirm_WrongCode(t *testing.T) {
	f := newFixture(t)
	f.store.put(pendingAlice())

	out, err := f.uc.Confirm(context.Background(), ConfirmInput{UserID: "alice", Code: "000000"})
	if err != nil {
		t.Fatalf("Confirm() error = %v, want nil for wrong code", err)
	}
	if out.Confirmed {
		t.Fatal("Confirmed = true, want false")
	}

	cred, _ := f.store.get("alice")
	if cred.State != entity.CredentialStatePending {
		t.Errorf("stored state = %v, want still pending", cred.State)
	}
	if f.store.promotes != 0 {
		t.Errorf("promote attempts = %d, want 0", f.store.promotes)
	}
}

func TestUsecase_Confirm_AdjacentPeriodRejected(t *testing.T) {
	f := newFixture(t)
	f.store.put(pendingAlice())

	// A code from the previous period is inside the validation window but
	// confirmation accepts the current period only.
	out, err := f.uc.Confirm(context.Background(), ConfirmInput{
		UserID: "alice",
		Code:   f.codeAt(t, testSecret, testNow.Add(-30*time.Second)),
	})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if out.Confirmed {
		t.Fatal("Confirmed = true, want false for adjacent-period code")
	}
}

func TestUsecase_Confirm_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Confirm(context.Background(), ConfirmInput{UserID: "ghost", Code: "123456"})

	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("Confirm() error = %v, want unauthorized", err)
	}
	if gerr.Msg() != msgCredentialDenied {
		t.Errorf("Msg() = %q, want unified denial message", gerr.Msg())
	}
}

func TestUsecase_Confirm_AlreadyConfirmed(t *testing.T) {
	f := newFixture(t)
	f.store.put(entity.Credential{
		UserID:          "alice",
		State:           entity.CredentialStateConfirmed,
		ConfirmedSecret: []byte(testSecret),
	})

	_, err := f.uc.Confirm(context.Background(), ConfirmInput{
		UserID: "alice",
		Code:   f.codeAt(t, testSecret, testNow),
	})

	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("Confirm() error = %v, want unauthorized", err)
	}
	if gerr.Msg() != msgCredentialDenied {
		t.Errorf("Msg() = %q, want unified denial message", gerr.Msg())
	}
}

func TestUsecase_Confirm_LostPromotionRace(t *testing.T) {
	f := newFixture(t)
	f.store.put(pendingAlice())
	// A concurrent confirm promoted the credential between this caller's
	// read and its promote. The loser gets a negative result, not an error.
	f.store.promoteDenied = true

	out, err := f.uc.Confirm(context.Background(), ConfirmInput{
		UserID: "alice",
		Code:   f.codeAt(t, testSecret, testNow),
	})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if out.Confirmed {
		t.Fatal("Confirmed = true, want false for lost race")
	}

	if err := f.gr.Wait(); err != nil {
		t.Fatalf("goroutine wait error = %v", err)
	}
	if got := f.msgr.confirmedCount(); got != 0 {
		t.Errorf("confirmed events = %d, want 0", got)
	}
}

func TestUsecase_Confirm_ReenrolledBetweenVerifyAndPromote(t *testing.T) {
	f := newFixture(t)
	f.store.put(pendingAlice())
	// A fresh enrollment replaces the pending secret after this caller
	// verified the old one. The promote must notice the mismatch and refuse,
	// otherwise a secret whose code was never checked would become active.
	f.store.beforePromote = func(creds map[string]entity.Credential) {
		creds["alice"] = entity.Credential{
			UserID:        "alice",
			State:         entity.CredentialStatePending,
			PendingSecret: []byte(otherSecret),
		}
	}

	out, err := f.uc.Confirm(context.Background(), ConfirmInput{
		UserID: "alice",
		Code:   f.codeAt(t, testSecret, testNow),
	})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if out.Confirmed {
		t.Fatal("Confirmed = true, want false when the pending secret changed underfoot")
	}

	cred, _ := f.store.get("alice")
	if cred.State != entity.CredentialStatePending {
		t.Errorf("stored state = %v, want still pending", cred.State)
	}
	if string(cred.PendingSecret) != otherSecret {
		t.Error("re-enrolled pending secret was not preserved")
	}
	if cred.ConfirmedSecret != nil {
		t.Error("an unverified secret was promoted to confirmed")
	}

	if err := f.gr.Wait(); err != nil {
		t.Fatalf("goroutine wait error = %v", err)
	}
	if got := f.msgr.confirmedCount(); got != 0 {
		t.Errorf("confirmed events = %d, want 0", got)
	}
}

func TestUsecase_Confirm_StoreErrors(t *testing.T) {
	f := newFixture(t)
	f.store.getErr = errors.New("network down")

	_, err := f.uc.Confirm(context.Background(), ConfirmInput{UserID: "alice", Code: "123456"})

	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Type() != goerror.TypeServer {
		t.Fatalf("Confirm() error = %v, want server error", err)
	}

	f2 := newFixture(t)
	f2.store.put(pendingAlice())
	f2.store.promoteErr = errors.New("network down")

	_, err = f2.uc.Confirm(context.Background(), ConfirmInput{
		UserID: "alice",
		Code:   f2.codeAt(t, testSecret, testNow),
	})
	if !errors.As(err, &gerr) || gerr.Type() != goerror.TypeServer {
		t.Fatalf("Confirm() error = %v, want server error", err)
	}
}

func TestUsecase_Confirm_InvalidCodeFormat(t *testing.T) {
	f := newFixture(t)
	f.store.put(pendingAlice())

	tests := []string{"", "12345", "1234567", "12a456"}
	for _, code := range tests {
		_, err := f.uc.Confirm(context.Background(), ConfirmInput{UserID: "alice", Code: code})

		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeInvalidInput {
			t.Errorf("Confirm(code=%q) error = %v, want invalid input", code, err)
		}
	}
}
