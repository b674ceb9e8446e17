package llm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNoImage            = errors.New("image generation failed")
	ErrIncompleteResponse = errors.New("incomplete response")
	ErrInvalidAspectRatio = errors.New("invalid aspect ratio")
)

type StoryRequest struct {
	Title       string `json:"title"`
	NumScenes   int    `json:"numScenes"`
	VisualStyle string `json:"visualStyle"`
	Language    string `json:"language"`
}

type StoryResult struct {
	Title        string   `json:"title"`
	NumScenes    Count    `json:"numScenes"`
	VisualStyle  string   `json:"visualStyle"`
	Language     string   `json:"language"`
	Scenes       []Scene  `json:"scenes"`
	TikTokCover  string   `json:"tiktokCover"`
	YouTubeCover string   `json:"youtubeCover"`
	Hashtags     []string `json:"hashtags"`
}

type Scene struct {
	Number            Count            `json:"number"`
	Narration         string           `json:"narration"`
	Tone              string           `json:"tone"`
	StructuredPrompt1 StructuredPrompt `json:"structuredPrompt1"`
	StructuredPrompt2 StructuredPrompt `json:"structuredPrompt2"`
}

// Count is a whole number that also decodes from integral JSON floats such
// as 3.0, which NUMBER schema nodes allow.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid count %s", data)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("count %s is not a whole number", data)
	}
	*c = Count(f)
	return nil
}

type StructuredPrompt struct {
	Subject         string `json:"subject"`
	Action          string `json:"action"`
	Environment     string `json:"environment"`
	CameraMovement  string `json:"camera_movement"`
	Lighting        string `json:"lighting"`
	VisualStyleTags string `json:"visual_style_tags"`
}

// Text flattens the prompt into one image-model instruction, skipping empty
// fields.
func (p StructuredPrompt) Text() string {
	var sb strings.Builder
	add := func(label, value string) {
		if value == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString(". ")
		}
		if label != "" {
			sb.WriteString(label + ": ")
		}
		sb.WriteString(value)
	}
	add("", strings.Join(nonEmpty(p.Subject, p.Action, p.Environment), ", "))
	add("Camera", p.CameraMovement)
	add("Lighting", p.Lighting)
	add("Style", p.VisualStyleTags)
	return sb.String()
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// AffiliateRequest describes a product promo. ProductImage and ModelImage are
// optional data-URIs.
type AffiliateRequest struct {
	ProductName        string `json:"productName"`
	CustomInstructions string `json:"customInstructions"`
	ProductImage       string `json:"productImg,omitempty"`
	ModelImage         string `json:"modelImg,omitempty"`
	Style              string `json:"style"`
	NumScenes          int    `json:"numScenes"`
}

type AffiliateResult struct {
	Summary string           `json:"summary"`
	Caption string           `json:"caption"`
	Assets  []AffiliateAsset `json:"assets"`
}

type AffiliateAsset struct {
	Label       string `json:"label"`
	ImagePrompt string `json:"imagePrompt"`
	VideoPrompt string `json:"videoPrompt"`
}

type ImageRequest struct {
	Prompt         string      `json:"prompt"`
	AspectRatio    AspectRatio `json:"aspectRatio"`
	ReferenceImage string      `json:"referenceImg,omitempty"`
}

type AspectRatio string

const (
	AspectSquare     AspectRatio = "1:1"
	AspectPortrait   AspectRatio = "3:4"
	AspectLandscape  AspectRatio = "4:3"
	AspectVertical   AspectRatio = "9:16"
	AspectWidescreen AspectRatio = "16:9"
)

const DefaultAspectRatio = AspectSquare

var aspectRatios = []AspectRatio{AspectSquare, AspectPortrait, AspectLandscape, AspectVertical, AspectWidescreen}

// AspectRatios lists every ratio the image model accepts.
func AspectRatios() []AspectRatio {
	out := make([]AspectRatio, len(aspectRatios))
	copy(out, aspectRatios)
	return out
}

// Resolve returns the ratio to send, substituting the default for an empty
// value.
func (a AspectRatio) Resolve() (AspectRatio, error) {
	if a == "" {
		return DefaultAspectRatio, nil
	}
	for _, r := range aspectRatios {
		if a == r {
			return a, nil
		}
	}
	return "", ErrInvalidAspectRatio
}
