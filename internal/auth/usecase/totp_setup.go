package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
	"github.com/shandysiswandi/gofactor/internal/pkg/mfa"
)

type TOTPSetupOutput struct {
	Secret  string
	URI     string
	QRImage string
}

// TOTPSetup provisions a fresh TOTP secret for the authenticated user. The
// secret stays pending until TOTPConfirm proves the authenticator produces
// matching codes. Calling setup again replaces any previous secret and
// turns two-factor off until the replacement is confirmed, so an account
// with a lost authenticator can always re-enroll.
func (s *Usecase) TOTPSetup(ctx context.Context) (*TOTPSetupOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPSetup")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	cred, err := s.repoDB.GetCredentialByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "credential not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	secret, uri, err := s.totp.Generate(cred.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	encryptedSecret, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.Scope{
		UserID:  cred.ID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "user_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.SetPendingTOTPSecret(ctx, cred.ID, encryptedSecret); err != nil {
		slog.ErrorContext(ctx, "failed to repo set pending totp secret", "user_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	qrImage, err := s.qr.DataURI(uri, 0)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render totp qr code", "user_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TOTPSetupOutput{
		Secret:  secret,
		URI:     uri,
		QRImage: qrImage,
	}, nil
}
