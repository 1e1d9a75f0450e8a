package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gofactor/internal/auth/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
)

type RegisterInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
}

func (s *Usecase) Register(ctx context.Context, in RegisterInput) error {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	hashedPassword, err := s.hash.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return goerror.NewServer(err)
	}

	cred := entity.Credential{
		ID:       s.uid.Generate(),
		Email:    in.Email,
		Password: string(hashedPassword),
	}

	if err := s.repoDB.CreateCredential(ctx, cred); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "email already registered", "email", in.Email)
			return goerror.NewBusiness("Email already registered", goerror.CodeConflict)
		}

		slog.ErrorContext(ctx, "failed to repo create credential", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	// Publishing must not hold back or fail the registration response.
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishUserRegistered(ctx, UserRegisteredEvent{
			UserID: cred.ID,
			Email:  cred.Email,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish user registered", "user_id", cred.ID, "error", err)
		}

		return nil
	})

	return nil
}
