package otp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

// Secrets are 20 bytes (160 bits) as recommended by RFC 4226 section 4,
// encoded with unpadded base32 for authenticator-app compatibility.
const secretSize = 20

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// ErrInvalidSecret is returned when a shared secret is not valid base32.
var ErrInvalidSecret = errors.New("otp: secret is not valid base32")

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate creates a secret and provisioning URI for an account name.
	Generate(accountName string) (secret string, uri string, err error)
	// GenerateCode creates a TOTP code for the given secret and time.
	GenerateCode(secret string, at time.Time) (string, error)
	// Validate checks whether a code is valid at the given time.
	Validate(code, secret string, at time.Time) bool
	// Match is Validate plus the time-step counter the code matched on,
	// so callers can persist it and refuse codes from earlier steps.
	Match(code, secret string, at time.Time) (counter int64, ok bool)
}

// TOTP implements OTP using HMAC-SHA1 time-based one-time passwords.
type TOTP struct {
	issuer string
	period int64
	skew   int64
	digits int
	rand   io.Reader
}

// Option customizes a TOTP instance.
type Option func(*TOTP)

// WithRand overrides the randomness source used for secret generation.
func WithRand(r io.Reader) Option {
	return func(t *TOTP) { t.rand = r }
}

// NewTOTP constructs a TOTP instance with sensible defaults.
//
// If digits is not 6 or 8, it falls back to 6 digits. If period is 0, it
// uses the common 30-second period. A zero skew still accepts the current
// step only; the usual setting is 1 (one step of clock drift either way).
func NewTOTP(issuer string, period, skew uint, digits int, opts ...Option) *TOTP {
	if digits != 6 && digits != 8 {
		digits = 6
	}

	if period == 0 {
		period = 30
	}

	t := &TOTP{
		issuer: issuer,
		period: int64(period),
		skew:   int64(skew),
		digits: digits,
		rand:   rand.Reader,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Generate creates a fresh shared secret and the otpauth:// provisioning
// URI that authenticator apps scan during enrollment.
func (o *TOTP) Generate(accountName string) (secret string, uri string, err error) {
	buf := make([]byte, secretSize)
	if _, err := io.ReadFull(o.rand, buf); err != nil {
		return "", "", fmt.Errorf("otp: read random secret: %w", err)
	}

	secret = b32.EncodeToString(buf)

	return secret, o.uri(accountName, secret), nil
}

// GenerateCode creates a TOTP code for the given secret and time.
func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	return o.hotp(key, at.Unix()/o.period), nil
}

// Validate checks whether a code is valid at the given time, accepting up
// to skew steps of clock drift in either direction.
func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	_, ok := o.Match(code, secret, at)

	return ok
}

// Match validates a code and returns the time-step counter it matched on.
// Candidate codes are compared in constant time.
func (o *TOTP) Match(code, secret string, at time.Time) (int64, bool) {
	if !wellFormed(code, o.digits) {
		return 0, false
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return 0, false
	}

	base := at.Unix() / o.period
	for offset := -o.skew; offset <= o.skew; offset++ {
		counter := base + offset
		if counter < 0 {
			continue
		}

		expected := o.hotp(key, counter)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return counter, true
		}
	}

	return 0, false
}

// hotp computes the RFC 4226 value for one counter: HMAC-SHA1 over the
// big-endian counter, dynamically truncated to a 31-bit integer, reduced
// modulo 10^digits, and left-padded with zeros.
func (o *TOTP) hotp(key []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	off := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[off:off+4]) & 0x7fffffff

	mod := uint32(1)
	for range o.digits {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", o.digits, value%mod)
}

func (o *TOTP) uri(accountName, secret string) string {
	label := url.PathEscape(o.issuer + ":" + accountName)

	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", o.issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", o.digits))
	q.Set("period", fmt.Sprintf("%d", o.period))

	return "otpauth://totp/" + label + "?" + q.Encode()
}

func decodeSecret(secret string) ([]byte, error) {
	normalized := strings.TrimRight(strings.ToUpper(strings.TrimSpace(secret)), "=")

	key, err := b32.DecodeString(normalized)
	if err != nil {
		return nil, ErrInvalidSecret
	}

	return key, nil
}

// wellFormed rejects codes of the wrong length or with non-digit
// characters before any cryptographic work happens.
func wellFormed(code string, digits int) bool {
	if len(code) != digits {
		return false
	}

	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
