package datauri

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		data     []byte
	}{
		{name: "png", mimeType: "image/png", data: pngHeader},
		{name: "jpeg", mimeType: "image/jpeg", data: []byte{0xff, 0xd8, 0xff, 0xe0}},
		{name: "emptyPayload", mimeType: "image/png", data: []byte{}},
		{name: "allBytes", mimeType: "image/webp", data: func() []byte {
			b := make([]byte, 256)
			for i := range b {
				b[i] = byte(i)
			}
			return b
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri := Encode(tt.mimeType, tt.data)
			if !strings.HasPrefix(uri, "data:"+tt.mimeType+";base64,") {
				t.Fatalf("Encode() = %q, missing prefix", uri)
			}

			got, err := Parse(uri)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !bytes.Equal(got.Data, tt.data) {
				t.Errorf("Parse().Data = %v, want %v", got.Data, tt.data)
			}
			if got.MIMEType != tt.mimeType {
				t.Errorf("Parse().MIMEType = %q, want %q", got.MIMEType, tt.mimeType)
			}
		})
	}
}

func TestEncodeDefaultMIMEType(t *testing.T) {
	got := Encode("", []byte("x"))
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("Encode() = %q, want image/png prefix", got)
	}
}

func TestParseMIMEType(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{name: "declaredImage", uri: "data:image/jpeg;base64,eA==", want: "image/jpeg"},
		{name: "upperCase", uri: "data:IMAGE/GIF;base64,eA==", want: "image/gif"},
		{name: "nonImage", uri: "data:application/octet-stream;base64,eA==", want: DefaultMIMEType},
		{name: "bareHeader", uri: "whatever,eA==", want: DefaultMIMEType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.uri)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got.MIMEType != tt.want {
				t.Errorf("MIMEType = %q, want %q", got.MIMEType, tt.want)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{name: "noComma", uri: "data:image/png;base64"},
		{name: "badBase64", uri: "data:image/png;base64,***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.uri)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.png")
	if err := os.WriteFile(path, pngHeader, 0644); err != nil {
		t.Fatal(err)
	}

	uri, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile() error = %v", err)
	}

	got, err := Parse(uri)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", got.MIMEType)
	}
	if !bytes.Equal(got.Data, pngHeader) {
		t.Error("FromFile() did not preserve bytes")
	}
}

func TestFromFileMissing(t *testing.T) {
	if _, err := FromFile("/nonexistent/ref.png"); err == nil {
		t.Error("expected error for missing file")
	}
}
