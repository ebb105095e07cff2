package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/clock"
	"github.com/shandysiswandi/gofactor/internal/pkg/config"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
	"github.com/shandysiswandi/gofactor/internal/pkg/goroutine"
	"github.com/shandysiswandi/gofactor/internal/pkg/instrument"
	"github.com/shandysiswandi/gofactor/internal/pkg/totp"
	"github.com/shandysiswandi/gofactor/internal/pkg/uid"
	"github.com/shandysiswandi/gofactor/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// msgCredentialDenied is the single denial message for confirm and validate.
// Unknown users and broken credential states share it so responses cannot be
// used to probe which user IDs are enrolled.
const msgCredentialDenied = "invalid credential or code"

type CredentialEnrolledEvent struct {
	UserID string
}

type CredentialConfirmedEvent struct {
	UserID string
}

type repoMessaging interface {
	PublishCredentialEnrolled(ctx context.Context, msg CredentialEnrolledEvent) error
	PublishCredentialConfirmed(ctx context.Context, msg CredentialConfirmedEvent) error
}

type repoStore interface {
	GetCredential(ctx context.Context, userID string) (*entity.Credential, error)

	// SaveEnrollment replaces the whole record for the user, whatever its
	// previous state. Re-enrolling a confirmed user resets them to pending.
	SaveEnrollment(ctx context.Context, cred entity.Credential) error

	// PromoteCredential atomically moves a pending credential to confirmed,
	// but only while the stored pending secret still equals verifiedPending.
	// It reports false when a concurrent confirm won the race or a concurrent
	// enrollment replaced the secret after it was verified.
	PromoteCredential(ctx context.Context, userID string, verifiedPending []byte, promotedAt time.Time) (bool, error)
}

type Usecase struct {
	repoStore     repoStore
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	totp          totp.Engine
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoStore     repoStore
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	Totp          totp.Engine
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoStore:     dep.RepoStore,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		totp:          dep.Totp,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.usecase").Start(ctx, name)
}

func (s *Usecase) deniedError() error {
	return goerror.NewBusiness(msgCredentialDenied, goerror.CodeUnauthorized)
}

// loginWindowSteps is the verification window for validation only.
// Confirmation always uses a zero window.
func (s *Usecase) loginWindowSteps() uint {
	if s.cfg == nil {
		return 1
	}
	if v := s.cfg.GetUint("modules.credential.login_window_steps"); v > 0 {
		return v
	}
	return 1
}
