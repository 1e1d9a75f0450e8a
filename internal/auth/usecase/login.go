package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	TwoFactorRequired bool
	UserID            int64
	//
	AccessToken string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.repoDB.GetCredentialByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		// Burn a hash verification so unknown emails cost the same as a
		// wrong password.
		s.hash.Verify(s.dummyHash, in.Password)

		slog.WarnContext(ctx, "credential not found", "email", in.Email)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	key := s.throttleKey("login", cred.ID)

	allowed, err := s.throttle.Allow(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check login throttle", "user_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "login attempts throttled", "user_id", cred.ID)
		return nil, goerror.NewBusiness("too many failed attempts, try again later", goerror.CodeTooManyRequest)
	}

	if !s.hash.Verify(cred.Password, in.Password) {
		if err := s.throttle.Fail(ctx, key); err != nil {
			slog.ErrorContext(ctx, "failed to record login throttle failure", "user_id", cred.ID, "error", err)
		}

		slog.WarnContext(ctx, "password not match", "user_id", cred.ID)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}

	if err := s.throttle.Reset(ctx, key); err != nil {
		slog.ErrorContext(ctx, "failed to reset login throttle", "user_id", cred.ID, "error", err)
	}

	if cred.TwoFactorEnabled {
		return &LoginOutput{
			TwoFactorRequired: true,
			UserID:            cred.ID,
		}, nil
	}

	acToken, err := s.jwt.Generate(cred.ID, cred.Email, false)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{AccessToken: acToken}, nil
}
