package llm

import "context"

type ScriptWriter interface {
	GenerateStoryContent(ctx context.Context, req StoryRequest) (*StoryResult, error)
	GenerateAffiliateContent(ctx context.Context, req AffiliateRequest) (*AffiliateResult, error)
}

// ImageGenerator returns the generated image as a data-URI.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// Part is one element of a multimodal prompt: TextPart or InlinePart.
type Part interface {
	isPart()
}

type TextPart struct {
	Text string
}

type InlinePart struct {
	MIMEType string
	Data     []byte
}

func (TextPart) isPart()   {}
func (InlinePart) isPart() {}
