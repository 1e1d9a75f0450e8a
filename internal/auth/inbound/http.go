package inbound

import (
	"context"

	"github.com/shandysiswandi/gofactor/internal/auth/usecase"
	"github.com/shandysiswandi/gofactor/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) error
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Login2FA(ctx context.Context, in usecase.Login2FAInput) (*usecase.Login2FAOutput, error)

	TOTPSetup(ctx context.Context) (*usecase.TOTPSetupOutput, error)
	TOTPConfirm(ctx context.Context, in usecase.TOTPConfirmInput) error
	TOTPValidate(ctx context.Context, in usecase.TOTPValidateInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Authentication
	r.POST("/api/v1/auth/register", end.Register)
	r.POST("/api/v1/auth/login", end.Login)
	r.POST("/api/v1/auth/login/2fa", end.Login2FA)

	// Two-factor management (need authenticated)
	r.POST("/api/v1/auth/2fa/setup", end.TOTPSetup)
	r.POST("/api/v1/auth/2fa/confirm", end.TOTPConfirm)
	r.POST("/api/v1/auth/2fa/validate", end.TOTPValidate)
}
