package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

type ConfirmInput struct {
	UserID string `validate:"required,max=128"`
	Code   string `validate:"required,len=6,numeric"`
}

type ConfirmOutput struct {
	Confirmed bool
}

// Confirm proves possession of a pending secret and activates it.
//
// The code is checked against the current period only. A wrong code is a
// negative result, not an error, so callers can distinguish "try again" from
// actual failures.
func (s *Usecase) Confirm(ctx context.Context, in ConfirmInput) (*ConfirmOutput, error) {
	ctx, span := s.startSpan(ctx, "Confirm")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.repoStore.GetCredential(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "confirm for unknown credential", "user_id", in.UserID)
		return nil, s.deniedError()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if cred.State.Ensure() != entity.CredentialStatePending || len(cred.PendingSecret) == 0 {
		slog.WarnContext(ctx, "confirm on non-pending credential", "user_id", in.UserID, "state", cred.State.String())
		return nil, s.deniedError()
	}

	now := s.clock.Now()
	if !s.totp.Validate(in.Code, string(cred.PendingSecret), now, 0) {
		slog.WarnContext(ctx, "confirm code rejected", "user_id", in.UserID)
		return &ConfirmOutput{Confirmed: false}, nil
	}

	// The promote re-checks the pending secret against the one just verified,
	// so a re-enrollment landing between verify and promote cannot confirm an
	// unverified secret.
	promoted, err := s.repoStore.PromoteCredential(ctx, in.UserID, cred.PendingSecret, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo promote credential", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if promoted {
		s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
			return s.repoMessaging.PublishCredentialConfirmed(ctx, CredentialConfirmedEvent{UserID: in.UserID})
		})
	}

	return &ConfirmOutput{Confirmed: promoted}, nil
}
