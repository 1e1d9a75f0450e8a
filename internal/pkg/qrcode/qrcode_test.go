package qrcode

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG(t *testing.T) {
	gen := NewPNG()

	png, err := gen.PNG("otpauth://totp/gofactor:ana@mail.com?secret=ABC", 256)

	require.NoError(t, err)
	assert.True(t, len(png) > 8)
	assert.Equal(t, "\x89PNG\r\n\x1a\n", string(png[:8]), "PNG signature")
}

func TestPNG_EmptyContent(t *testing.T) {
	gen := NewPNG()

	_, err := gen.PNG("", 256)

	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestPNG_DefaultSize(t *testing.T) {
	gen := NewPNG()

	png, err := gen.PNG("hello", 0)

	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestDataURI(t *testing.T) {
	gen := NewPNG()

	uri, err := gen.DataURI("otpauth://totp/gofactor:ana@mail.com?secret=ABC", 128)

	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG\r\n\x1a\n", string(raw[:8]))
}

func TestDataURI_EmptyContent(t *testing.T) {
	gen := NewPNG()

	_, err := gen.DataURI("", 128)

	assert.ErrorIs(t, err, ErrEmptyContent)
}
