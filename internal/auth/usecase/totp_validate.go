package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

type TOTPValidateInput struct {
	Code string `validate:"required,len=6,numeric"`
}

// TOTPValidate re-checks a current code for an already authenticated user, a
// step-up gate for sensitive actions. A matched code is consumed like any
// login code so it cannot be replayed.
func (s *Usecase) TOTPValidate(ctx context.Context, in TOTPValidateInput) error {
	ctx, span := s.startSpan(ctx, "TOTPValidate")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	cred, err := s.repoDB.GetCredentialByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "credential not found", "user_id", clm.UserID)
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential by id", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if !cred.TwoFactorEnabled {
		return goerror.NewBusiness("Two-factor authentication is not enabled", goerror.CodeConflict)
	}

	return s.consumeTOTP(ctx, cred, in.Code)
}
