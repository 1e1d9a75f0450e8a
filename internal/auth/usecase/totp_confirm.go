package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

type TOTPConfirmInput struct {
	Code string `validate:"required,len=6,numeric"`
}

// TOTPConfirm verifies a code against the pending secret from TOTPSetup and,
// on match, turns two-factor authentication on for the account. The matched
// time-step is recorded so the confirmation code cannot be reused to log in.
func (s *Usecase) TOTPConfirm(ctx context.Context, in TOTPConfirmInput) error {
	ctx, span := s.startSpan(ctx, "TOTPConfirm")
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

	if cred.TwoFactorEnabled {
		return goerror.NewBusiness("Two-factor authentication already enabled", goerror.CodeConflict)
	}

	if !cred.HasTOTPSecret() {
		return goerror.NewBusiness("Two-factor authentication has not been set up", goerror.CodeConflict)
	}

	counter, err := s.matchTOTP(ctx, cred, in.Code)
	if err != nil {
		return err
	}

	if err := s.repoDB.EnableTwoFactor(ctx, cred.ID, counter); err != nil {
		slog.ErrorContext(ctx, "failed to repo enable two factor", "user_id", cred.ID, "error", err)
		return goerror.NewServer(err)
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishTwoFactorEnabled(ctx, TwoFactorEnabledEvent{
			UserID: cred.ID,
			Email:  cred.Email,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish two factor enabled", "user_id", cred.ID, "error", err)
		}

		return nil
	})

	return nil
}
