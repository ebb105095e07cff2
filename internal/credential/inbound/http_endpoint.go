package inbound

import (
	"github.com/shandysiswandi/gofactor/internal/credential/usecase"
	"github.com/shandysiswandi/gofactor/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the credential lifecycle.
type HTTPEndpoint struct {
	uc uc
}

// Enroll mints a new pending credential and returns the pairing material.
// The secret and QR code are shown exactly once; they are not retrievable
// afterwards.
func (h *HTTPEndpoint) Enroll(r *router.Request) (any, error) {
	var req EnrollRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Enroll(r.Context(), usecase.EnrollInput{
		UserID: req.UserID,
	})
	if err != nil {
		return nil, err
	}

	return EnrollResponse{
		UserID: resp.UserID,
		Secret: resp.Secret,
		URI:    resp.URI,
		QRPNG:  resp.QRPNG,
	}, nil
}

// Confirm activates a pending credential when the submitted code matches.
func (h *HTTPEndpoint) Confirm(r *router.Request) (any, error) {
	var req ConfirmRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Confirm(r.Context(), usecase.ConfirmInput{
		UserID: req.UserID,
		Code:   req.Code,
	})
	if err != nil {
		return nil, err
	}

	return ConfirmResponse{
		Confirmed: resp.Confirmed,
	}, nil
}

// Validate checks a code against the user's confirmed credential.
func (h *HTTPEndpoint) Validate(r *router.Request) (any, error) {
	var req ValidateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Validate(r.Context(), usecase.ValidateInput{
		UserID: req.UserID,
		Code:   req.Code,
	})
	if err != nil {
		return nil, err
	}

	return ValidateResponse{
		Valid: resp.Valid,
	}, nil
}
