package entity

import "time"

type Credential struct {
	ID               int64
	Email            string
	Password         string // hashed
	TOTPSecret       []byte // encrypted at rest, nil until setup starts
	TwoFactorEnabled bool
	TOTPLastCounter  int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasTOTPSecret reports whether a TOTP secret has been provisioned, verified
// or not.
func (c Credential) HasTOTPSecret() bool {
	return len(c.TOTPSecret) > 0
}
