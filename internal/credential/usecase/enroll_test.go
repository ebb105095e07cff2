package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

func TestUsecase_Enroll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.uc.Enroll(ctx, EnrollInput{UserID: "alice"})
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if out.UserID != "alice" {
		t.Errorf("UserID = %q, want %q", out.UserID, "alice")
	}
	if out.Secret == "" {
		t.Error("Secret is empty")
	}
	if !strings.HasPrefix(out.URI, "otpauth://totp/") {
		t.Errorf("URI = %q, want otpauth prefix", out.URI)
	}
	if len(out.QRPNG) == 0 {
		t.Error("QRPNG is empty")
	}

	cred, ok := f.store.get("alice")
	if !ok {
		t.Fatal("credential not stored")
	}
	if cred.State != entity.CredentialStatePending {
		t.Errorf("stored state = %v, want pending", cred.State)
	}
	if string(cred.PendingSecret) != out.Secret {
		t.Error("stored pending secret differs from returned secret")
	}

	if err := f.gr.Wait(); err != nil {
		t.Fatalf("goroutine wait error = %v", err)
	}
	if got := f.msgr.enrolledCount(); got != 1 {
		t.Errorf("enrolled events = %d, want 1", got)
	}
}

func TestUsecase_Enroll_MintsUserID(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.Enroll(context.Background(), EnrollInput{})
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if out.UserID != "generated-1" {
		t.Errorf("UserID = %q, want minted id", out.UserID)
	}
	if _, ok := f.store.get("generated-1"); !ok {
		t.Error("credential not stored under minted id")
	}
}

func TestUsecase_Enroll_ResetsConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.put(entity.Credential{
		UserID:          "alice",
		State:           entity.CredentialStateConfirmed,
		ConfirmedSecret: []byte(testSecret),
	})

	out, err := f.uc.Enroll(ctx, EnrollInput{UserID: "alice"})
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	cred, _ := f.store.get("alice")
	if cred.State != entity.CredentialStatePending {
		t.Errorf("stored state = %v, want pending", cred.State)
	}
	if cred.ConfirmedSecret != nil {
		t.Error("confirmed secret survived re-enrollment")
	}
	if string(cred.PendingSecret) != out.Secret {
		t.Error("stored pending secret differs from returned secret")
	}
}

func TestUsecase_Enroll_StoreError(t *testing.T) {
	f := newFixture(t)
	f.store.saveErr = errors.New("disk on fire")

	_, err := f.uc.Enroll(context.Background(), EnrollInput{UserID: "alice"})

	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Type() != goerror.TypeServer {
		t.Fatalf("Enroll() error = %v, want server error", err)
	}

	if err := f.gr.Wait(); err != nil {
		t.Fatalf("goroutine wait error = %v", err)
	}
	if got := f.msgr.enrolledCount(); got != 0 {
		t.Errorf("enrolled events = %d, want 0", got)
	}
}

func TestUsecase_Enroll_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Enroll(context.Background(), EnrollInput{UserID: strings.Repeat("x", 129)})

	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeInvalidInput {
		t.Fatalf("Enroll() error = %v, want invalid input", err)
	}
}
