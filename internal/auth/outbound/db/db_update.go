package db

import (
	"context"
)

const setPendingTOTPSecret = `
UPDATE auth_credentials
SET totp_secret = $2, two_factor_enabled = FALSE, totp_last_counter = 0, updated_at = NOW()
WHERE id = $1
`

// SetPendingTOTPSecret stores a freshly provisioned secret and drops any
// previous enrollment for the user.
func (s *DB) SetPendingTOTPSecret(ctx context.Context, userID int64, secret []byte) (err error) {
	ctx, span := s.startSpan(ctx, "SetPendingTOTPSecret")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, setPendingTOTPSecret, userID, secret)

	return s.mapError(err)
}

const enableTwoFactor = `
UPDATE auth_credentials
SET two_factor_enabled = TRUE, totp_last_counter = $2, updated_at = NOW()
WHERE id = $1 AND totp_secret IS NOT NULL
`

func (s *DB) EnableTwoFactor(ctx context.Context, userID, counter int64) (err error) {
	ctx, span := s.startSpan(ctx, "EnableTwoFactor")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, enableTwoFactor, userID, counter)

	return s.mapError(err)
}

const advanceTOTPCounter = `
UPDATE auth_credentials
SET totp_last_counter = $2, updated_at = NOW()
WHERE id = $1 AND totp_last_counter < $2
`

// AdvanceTOTPCounter records the time-step a code matched at. It reports
// false when the counter did not move, meaning the code was already used.
func (s *DB) AdvanceTOTPCounter(ctx context.Context, userID, counter int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "AdvanceTOTPCounter")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, advanceTOTPCounter, userID, counter)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
