// Package datauri handles "data:<mime>;base64,<payload>" strings used to pass
// images in and out of the gateway.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

const DefaultMIMEType = "image/png"

var ErrMalformed = errors.New("malformed data uri")

type DataURI struct {
	MIMEType string
	Data     []byte
}

func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Parse splits uri on its first comma and decodes the remainder as base64.
// The declared MIME type is kept only when it is an image type; anything
// else is reported as DefaultMIMEType.
func Parse(uri string) (*DataURI, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing comma", ErrMalformed)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &DataURI{MIMEType: imageMIMEType(header), Data: data}, nil
}

func imageMIMEType(header string) string {
	header = strings.TrimPrefix(strings.TrimSpace(header), "data:")
	mimeType, _, _ := strings.Cut(header, ";")
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	return DefaultMIMEType
}

// FromFile reads an image file and returns it as a data-URI.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return Encode(http.DetectContentType(data), data), nil
}
