package usecase

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/config"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
	"github.com/shandysiswandi/gofactor/internal/pkg/goroutine"
	"github.com/shandysiswandi/gofactor/internal/pkg/instrument"
	"github.com/shandysiswandi/gofactor/internal/pkg/totp"
	"github.com/shandysiswandi/gofactor/internal/pkg/validator"
)

// Base32 encoding of the RFC 6238 test secret "12345678901234567890".
const testSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

// A second secret, for scenarios where a different enrollment replaces or
// coexists with the one under test.
const otherSecret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

var testNow = time.Unix(59, 0)

type fakeStore struct {
	mu            sync.Mutex
	creds         map[string]entity.Credential
	getErr        error
	saveErr       error
	promoteErr    error
	promoteDenied bool
	promotes      int

	// beforePromote runs inside PromoteCredential before the conditional
	// write, to simulate writes interleaved between verify and promote. It
	// runs under the store lock and mutates the map directly.
	beforePromote func(creds map[string]entity.Credential)
}

func newFakeStore() *fakeStore {
	return &fakeStore{creds: make(map[string]entity.Credential)}
}

func (f *fakeStore) GetCredential(_ context.Context, userID string) (*entity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	cred, ok := f.creds[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	out := cred
	return &out, nil
}

func (f *fakeStore) SaveEnrollment(_ context.Context, cred entity.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}

	cred.ConfirmedSecret = nil
	f.creds[cred.UserID] = cred
	return nil
}

func (f *fakeStore) PromoteCredential(_ context.Context, userID string, verifiedPending []byte, promotedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.promoteErr != nil {
		return false, f.promoteErr
	}
	f.promotes++
	if f.promoteDenied {
		return false, nil
	}
	if f.beforePromote != nil {
		f.beforePromote(f.creds)
	}

	cred, ok := f.creds[userID]
	if !ok || cred.State.Ensure() != entity.CredentialStatePending || len(cred.PendingSecret) == 0 {
		return false, nil
	}
	if !bytes.Equal(cred.PendingSecret, verifiedPending) {
		return false, nil
	}

	cred.State = entity.CredentialStateConfirmed
	cred.ConfirmedSecret = cred.PendingSecret
	cred.PendingSecret = nil
	cred.UpdatedAt = promotedAt
	f.creds[userID] = cred
	return true, nil
}

func (f *fakeStore) put(cred entity.Credential) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds[cred.UserID] = cred
}

func (f *fakeStore) get(userID string) (entity.Credential, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.creds[userID]
	return cred, ok
}

type recordMessaging struct {
	mu        sync.Mutex
	enrolled  []CredentialEnrolledEvent
	confirmed []CredentialConfirmedEvent
}

func (r *recordMessaging) PublishCredentialEnrolled(_ context.Context, msg CredentialEnrolledEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enrolled = append(r.enrolled, msg)
	return nil
}

func (r *recordMessaging) PublishCredentialConfirmed(_ context.Context, msg CredentialConfirmedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmed = append(r.confirmed, msg)
	return nil
}

func (r *recordMessaging) enrolledCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.enrolled)
}

func (r *recordMessaging) confirmedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.confirmed)
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}

type seqUID struct {
	mu sync.Mutex
	n  int
}

func (u *seqUID) Generate() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.n++
	return "generated-" + strconv.Itoa(u.n)
}

type fixture struct {
	uc    *Usecase
	store *fakeStore
	msgr  *recordMessaging
	gr    *goroutine.Manager
	totp  totp.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  credential:\n    login_window_steps: 1\n"))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	engine := totp.New("gofactor", 30, otp.DigitsSix)
	st := newFakeStore()
	msgr := &recordMessaging{}
	gr := goroutine.NewManager(4)

	uc := New(Dependency{
		RepoStore:     st,
		RepoMessaging: msgr,
		Validator:     v10,
		Config:        cfg,
		Totp:          engine,
		UUID:          &seqUID{},
		Clock:         fixedClock{t: testNow},
		Instrument:    instrument.NewNoop(),
		Goroutine:     gr,
	})

	return &fixture{uc: uc, store: st, msgr: msgr, gr: gr, totp: engine}
}

func (f *fixture) codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	code, err := f.totp.GenerateCode(secret, at)
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}
	return code
}
