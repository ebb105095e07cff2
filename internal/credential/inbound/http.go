package inbound

import (
	"context"

	"github.com/shandysiswandi/gofactor/internal/credential/usecase"
	"github.com/shandysiswandi/gofactor/internal/pkg/router"
)

type uc interface {
	Enroll(ctx context.Context, in usecase.EnrollInput) (*usecase.EnrollOutput, error)
	Confirm(ctx context.Context, in usecase.ConfirmInput) (*usecase.ConfirmOutput, error)
	Validate(ctx context.Context, in usecase.ValidateInput) (*usecase.ValidateOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Credential lifecycle
	r.POST("/api/v1/credentials/enroll", end.Enroll)
	r.POST("/api/v1/credentials/confirm", end.Confirm)
	r.POST("/api/v1/credentials/validate", end.Validate)
}
