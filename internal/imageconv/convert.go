package imageconv

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

const defaultQuality = 85

// Converted is an encoded image ready to be stored.
type Converted struct {
	Data     []byte
	MIMEType string
	Ext      string
}

// Convert re-encodes data into format. A PNG source with format png is
// passed through untouched.
func Convert(data []byte, mimeType, format string, quality float32) (*Converted, error) {
	switch format {
	case "", FormatPNG:
		if mimeType == "image/png" {
			return &Converted{Data: data, MIMEType: "image/png", Ext: FormatPNG}, nil
		}
		out, err := ToPNG(data)
		if err != nil {
			return nil, err
		}
		return &Converted{Data: out, MIMEType: "image/png", Ext: FormatPNG}, nil
	case FormatWebP:
		out, err := ToWEBP(data, quality)
		if err != nil {
			return nil, err
		}
		return &Converted{Data: out, MIMEType: "image/webp", Ext: FormatWebP}, nil
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
}

func ToWEBP(data []byte, quality float32) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("webp options: %w", err)
	}

	var out bytes.Buffer
	if err := webp.Encode(&out, img, opts); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return out.Bytes(), nil
}

func ToPNG(data []byte) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func decodeImage(data []byte) (image.Image, error) {
	if isWEBP(data) {
		img, err := webp.Decode(bytes.NewReader(data), &decoder.Options{})
		if err != nil {
			return nil, fmt.Errorf("decode webp: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func isWEBP(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	return string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
