package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

type Login2FAInput struct {
	UserID int64  `validate:"required"`
	Code   string `validate:"required,len=6,numeric"`
}

type Login2FAOutput struct {
	AccessToken string
}

// Login2FA completes a login that Login answered with TwoFactorRequired. It
// never reveals whether the user exists or has two-factor enabled.
func (s *Usecase) Login2FA(ctx context.Context, in Login2FAInput) (*Login2FAOutput, error) {
	ctx, span := s.startSpan(ctx, "Login2FA")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.repoDB.GetCredentialByID(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "credential not found", "user_id", in.UserID)
		return nil, goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential by id", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !cred.TwoFactorEnabled {
		slog.WarnContext(ctx, "two factor not enabled", "user_id", cred.ID)
		return nil, goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}

	if err := s.consumeTOTP(ctx, cred, in.Code); err != nil {
		return nil, err
	}

	acToken, err := s.jwt.Generate(cred.ID, cred.Email, true)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &Login2FAOutput{AccessToken: acToken}, nil
}
