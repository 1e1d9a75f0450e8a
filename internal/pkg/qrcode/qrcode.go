// Package qrcode renders QR codes for provisioning URIs so clients can
// show a scannable image during authenticator enrollment.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

// ErrEmptyContent is returned when there is nothing to encode.
var ErrEmptyContent = errors.New("qrcode: content is empty")

// Generator encodes arbitrary content as a QR code image.
type Generator interface {
	// PNG renders the content as a PNG of size x size pixels.
	PNG(content string, size int) ([]byte, error)
	// DataURI renders the content as a data:image/png;base64 URI suitable
	// for direct embedding in an <img> tag.
	DataURI(content string, size int) (string, error)
}

// PNGGenerator implements Generator with medium error-correction PNGs.
type PNGGenerator struct{}

// NewPNG constructs a PNGGenerator.
func NewPNG() *PNGGenerator {
	return &PNGGenerator{}
}

// PNG renders the content as a PNG of size x size pixels.
func (g *PNGGenerator) PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	if size <= 0 {
		size = 256
	}

	png, err := qr.Encode(content, qr.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}

	return png, nil
}

// DataURI renders the content as a base64 data URI.
func (g *PNGGenerator) DataURI(content string, size int) (string, error) {
	png, err := g.PNG(content, size)
	if err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
