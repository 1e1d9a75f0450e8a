// Package otp implements time-based one-time passwords (RFC 6238) on top
// of the HOTP construction (RFC 4226).
//
// It covers the full enrollment lifecycle used by 2FA flows: random secret
// generation, provisioning URI rendering for authenticator apps, code
// generation, and skew-aware validation. Validation reports the matched
// time-step counter so callers can reject replayed codes.
package otp
