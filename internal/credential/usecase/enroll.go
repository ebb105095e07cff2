package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofactor/internal/credential/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

type EnrollInput struct {
	UserID string `validate:"omitempty,max=128"`
}

type EnrollOutput struct {
	UserID string
	Secret string
	URI    string
	QRPNG  []byte
}

// Enroll mints a fresh secret for the user and stores it as pending.
//
// Enrollment overwrites whatever record the user had before, including a
// confirmed one. A user who lost their device re-enrolls and starts over.
func (s *Usecase) Enroll(ctx context.Context, in EnrollInput) (*EnrollOutput, error) {
	ctx, span := s.startSpan(ctx, "Enroll")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	userID := in.UserID
	if userID == "" {
		userID = s.uuid.Generate()
	}

	secret, uri, err := s.totp.Generate(userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	qr, err := s.totp.QRCode(uri)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render pairing qr code", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	cred := entity.Credential{
		UserID:        userID,
		State:         entity.CredentialStatePending,
		PendingSecret: []byte(secret),
		UpdatedAt:     s.clock.Now(),
	}
	if err := s.repoStore.SaveEnrollment(ctx, cred); err != nil {
		slog.ErrorContext(ctx, "failed to repo save enrollment", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return s.repoMessaging.PublishCredentialEnrolled(ctx, CredentialEnrolledEvent{UserID: userID})
	})

	return &EnrollOutput{
		UserID: userID,
		Secret: secret,
		URI:    uri,
		QRPNG:  qr,
	}, nil
}
