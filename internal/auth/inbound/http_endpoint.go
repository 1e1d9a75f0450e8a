package inbound

import (
	"github.com/shandysiswandi/gofactor/internal/auth/usecase"
	"github.com/shandysiswandi/gofactor/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for authentication and two-factor workflows.
type HTTPEndpoint struct {
	uc uc
}

// Register creates a new account from an email and password.
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return nil, err
	}

	return &RegisterResponse{}, nil
}

// Login authenticates a user and returns a token or a two-factor challenge.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		TwoFactorRequired: resp.TwoFactorRequired,
		UserID:            resp.UserID,
		AccessToken:       resp.AccessToken,
	}, nil
}

// Login2FA completes a two-factor login challenge and issues a token.
func (h *HTTPEndpoint) Login2FA(r *router.Request) (any, error) {
	var req Login2FARequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login2FA(r.Context(), usecase.Login2FAInput{
		UserID: req.UserID,
		Code:   req.Code,
	})
	if err != nil {
		return nil, err
	}

	return Login2FAResponse{AccessToken: resp.AccessToken}, nil
}

// TOTPSetup provisions a pending TOTP secret for the authenticated user.
func (h *HTTPEndpoint) TOTPSetup(r *router.Request) (any, error) {
	resp, err := h.uc.TOTPSetup(r.Context())
	if err != nil {
		return nil, err
	}

	return TOTPSetupResponse{
		Secret:  resp.Secret,
		URI:     resp.URI,
		QRImage: resp.QRImage,
	}, nil
}

// TOTPConfirm verifies a code against the pending secret and enables two-factor.
func (h *HTTPEndpoint) TOTPConfirm(r *router.Request) (any, error) {
	var req TOTPConfirmRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.TOTPConfirm(r.Context(), usecase.TOTPConfirmInput{
		Code: req.Code,
	}); err != nil {
		return nil, err
	}

	return &TOTPConfirmResponse{}, nil
}

// TOTPValidate re-checks a current code for an authenticated user.
func (h *HTTPEndpoint) TOTPValidate(r *router.Request) (any, error) {
	var req TOTPValidateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.TOTPValidate(r.Context(), usecase.TOTPValidateInput{
		Code: req.Code,
	}); err != nil {
		return nil, err
	}

	return &TOTPValidateResponse{}, nil
}
