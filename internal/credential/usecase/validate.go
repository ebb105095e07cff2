package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

type ValidateInput struct {
	UserID string `validate:"required,max=128"`
	Code   string `validate:"required,len=6,numeric"`
}

type ValidateOutput struct {
	Valid bool
}

// Validate checks a code against the user's confirmed secret.
//
// Validation never mutates the credential. Users without a confirmed secret,
// including those still pending, always fail closed. The verification window
// tolerates adjacent periods to absorb clock drift.
func (s *Usecase) Validate(ctx context.Context, in ValidateInput) (*ValidateOutput, error) {
	ctx, span := s.startSpan(ctx, "Validate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.repoStore.GetCredential(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "validate for unknown credential", "user_id", in.UserID)
		return nil, s.deniedError()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	secret := cred.ActiveSecret()
	if secret == nil {
		slog.WarnContext(ctx, "validate without confirmed credential", "user_id", in.UserID, "state", cred.State.String())
		return &ValidateOutput{Valid: false}, nil
	}

	valid := s.totp.Validate(in.Code, string(secret), s.clock.Now(), s.loginWindowSteps())
	return &ValidateOutput{Valid: valid}, nil
}
