package otp

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	pquerna "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Base32 encoding of the ASCII seed "12345678901234567890", the shared
// secret used by the RFC 6238 appendix B reference vectors.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestGenerateCode_ReferenceVectors(t *testing.T) {
	tests := []struct {
		unix   int64
		digits int
		want   string
	}{
		{unix: 59, digits: 8, want: "94287082"},
		{unix: 1111111109, digits: 8, want: "07081804"},
		{unix: 1111111111, digits: 8, want: "14050471"},
		{unix: 1234567890, digits: 8, want: "89005924"},
		{unix: 2000000000, digits: 8, want: "69279037"},
		{unix: 20000000000, digits: 8, want: "65353130"},
		{unix: 59, digits: 6, want: "287082"},
		{unix: 1111111109, digits: 6, want: "081804"},
		{unix: 1234567890, digits: 6, want: "005924"},
		{unix: 20000000000, digits: 6, want: "353130"},
	}

	for _, tc := range tests {
		engine := NewTOTP("gofactor", 30, 1, tc.digits)

		got, err := engine.GenerateCode(rfcSecret, time.Unix(tc.unix, 0))

		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "unix=%d digits=%d", tc.unix, tc.digits)
	}
}

func TestGenerateCode_AgreesWithIndependentImplementation(t *testing.T) {
	engine := NewTOTP("gofactor", 30, 1, 6)

	secret, _, err := engine.Generate("ana@mail.com")
	require.NoError(t, err)

	for _, unix := range []int64{0, 59, 60, 1700000000, 4102444800} {
		at := time.Unix(unix, 0)

		want, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
			Period:    30,
			Skew:      1,
			Digits:    pquerna.DigitsSix,
			Algorithm: pquerna.AlgorithmSHA1,
		})
		require.NoError(t, err)

		got, err := engine.GenerateCode(secret, at)
		require.NoError(t, err)
		assert.Equal(t, want, got, "unix=%d", unix)
	}
}

func TestGenerateCode_InvalidSecret(t *testing.T) {
	engine := NewTOTP("gofactor", 30, 1, 6)

	_, err := engine.GenerateCode("not base32!!", time.Unix(59, 0))

	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestMatch(t *testing.T) {
	at := time.Unix(1111111111, 0) // counter 37037037

	tests := []struct {
		name        string
		code        string
		skew        uint
		wantCounter int64
		wantOK      bool
	}{
		{name: "current step", code: "050471", skew: 1, wantCounter: 37037037, wantOK: true},
		{name: "previous step within skew", code: "081804", skew: 1, wantCounter: 37037036, wantOK: true},
		{name: "previous step outside zero skew", code: "081804", skew: 0},
		{name: "wrong code", code: "000000", skew: 1},
		{name: "wrong length", code: "0504712", skew: 1},
		{name: "non-digit characters", code: "05o471", skew: 1},
		{name: "empty code", code: "", skew: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewTOTP("gofactor", 30, tc.skew, 6)

			counter, ok := engine.Match(tc.code, rfcSecret, at)

			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantCounter, counter)
		})
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	engine := NewTOTP("gofactor", 30, 1, 6)
	now := time.Unix(1756500000, 0)

	secret, _, err := engine.Generate("budi@mail.com")
	require.NoError(t, err)

	code, err := engine.GenerateCode(secret, now)
	require.NoError(t, err)

	assert.True(t, engine.Validate(code, secret, now))
	assert.True(t, engine.Validate(code, secret, now.Add(29*time.Second)), "drift within one step")
	assert.False(t, engine.Validate(code, secret, now.Add(5*time.Minute)), "stale code")
	assert.False(t, engine.Validate(code, secret, now.Add(-5*time.Minute)), "future code")
}

func TestValidate_MalformedInputs(t *testing.T) {
	engine := NewTOTP("gofactor", 30, 1, 6)
	now := time.Unix(1756500000, 0)

	assert.False(t, engine.Validate("123456", "@@not-base32@@", now))
	assert.False(t, engine.Validate("abc", rfcSecret, now))
	assert.False(t, engine.Validate("", "", now))
}

func TestGenerate(t *testing.T) {
	seed := bytes.Repeat([]byte{0xA7}, secretSize)
	engine := NewTOTP("gofactor", 30, 1, 6, WithRand(bytes.NewReader(seed)))

	secret, uri, err := engine.Generate("ana@mail.com")

	require.NoError(t, err)
	assert.Len(t, secret, 32, "20 bytes encode to 32 base32 characters")
	assert.NotContains(t, secret, "=")
	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/gofactor:ana@mail.com?"))
	assert.Contains(t, uri, "secret="+secret)
	assert.Contains(t, uri, "issuer=gofactor")
	assert.Contains(t, uri, "algorithm=SHA1")
	assert.Contains(t, uri, "digits=6")
	assert.Contains(t, uri, "period=30")

	// The provisioning URI must parse back in an authenticator library.
	key, err := pquerna.NewKeyFromURL(uri)
	require.NoError(t, err)
	assert.Equal(t, secret, key.Secret())
}

func TestGenerate_SecretsDiffer(t *testing.T) {
	engine := NewTOTP("gofactor", 30, 1, 6)

	first, _, err := engine.Generate("ana@mail.com")
	require.NoError(t, err)

	second, _, err := engine.Generate("ana@mail.com")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestGenerate_RandFailure(t *testing.T) {
	engine := NewTOTP("gofactor", 30, 1, 6, WithRand(failReader{}))

	_, _, err := engine.Generate("ana@mail.com")

	assert.Error(t, err)
}

type failReader struct{}

func (failReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }
