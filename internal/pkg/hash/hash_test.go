package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		want    any
		wantErr bool
	}{
		{name: "bcrypt", driver: "bcrypt", want: &Bcrypt{}},
		{name: "empty defaults to bcrypt", driver: "", want: &Bcrypt{}},
		{name: "argon2id", driver: "argon2id", want: &Argon2id{}},
		{name: "unknown", driver: "scrypt", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, err := New(tc.driver, bcrypt.MinCost, "pepper")

			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.IsType(t, tc.want, h)
		})
	}
}

func TestBcrypt_RoundTrip(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost, "pepper")

	hashed, err := h.Hash("s3cret-password")
	require.NoError(t, err)

	assert.True(t, h.Verify(string(hashed), "s3cret-password"))
	assert.False(t, h.Verify(string(hashed), "wrong-password"))
	assert.False(t, NewBcrypt(bcrypt.MinCost, "other-pepper").Verify(string(hashed), "s3cret-password"))
}

func TestArgon2id_RoundTrip(t *testing.T) {
	h := NewArgon2id("pepper")

	hashed, err := h.Hash("s3cret-password")
	require.NoError(t, err)

	assert.True(t, h.Verify(string(hashed), "s3cret-password"))
	assert.False(t, h.Verify(string(hashed), "wrong-password"))
	assert.False(t, h.Verify("", "s3cret-password"))
	assert.False(t, h.Verify("$argon2id$mangled", "s3cret-password"))
}

func TestHMACSHA256_RoundTrip(t *testing.T) {
	h := NewHMACSHA256("signing-secret")

	hashed, err := h.Hash("payload")
	require.NoError(t, err)

	assert.True(t, h.Verify(string(hashed), "payload"))
	assert.False(t, h.Verify(string(hashed), "other payload"))
	assert.False(t, NewHMACSHA256("different-secret").Verify(string(hashed), "payload"))
}
