package db

import (
	"context"

	"github.com/shandysiswandi/gofactor/internal/auth/entity"
)

const getCredentialByEmail = `
SELECT id, email, password, totp_secret, two_factor_enabled, totp_last_counter, created_at, updated_at
FROM auth_credentials
WHERE email = $1
`

func (s *DB) GetCredentialByEmail(ctx context.Context, email string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetCredentialByEmail")
	defer func() { s.endSpan(span, err) }()

	var cred entity.Credential
	err = s.conn.QueryRow(ctx, getCredentialByEmail, email).Scan(
		&cred.ID,
		&cred.Email,
		&cred.Password,
		&cred.TOTPSecret,
		&cred.TwoFactorEnabled,
		&cred.TOTPLastCounter,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &cred, nil
}

const getCredentialByID = `
SELECT id, email, password, totp_secret, two_factor_enabled, totp_last_counter, created_at, updated_at
FROM auth_credentials
WHERE id = $1
`

func (s *DB) GetCredentialByID(ctx context.Context, id int64) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetCredentialByID")
	defer func() { s.endSpan(span, err) }()

	var cred entity.Credential
	err = s.conn.QueryRow(ctx, getCredentialByID, id).Scan(
		&cred.ID,
		&cred.Email,
		&cred.Password,
		&cred.TOTPSecret,
		&cred.TwoFactorEnabled,
		&cred.TOTPLastCounter,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &cred, nil
}
