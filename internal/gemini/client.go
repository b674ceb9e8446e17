package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"storyreel/internal/datauri"
	"storyreel/internal/llm"
	"storyreel/pkg/config"
	"storyreel/pkg/httputil"
	"storyreel/pkg/prompts"
)

const (
	defaultTextModel        = "gemini-3-pro-preview"
	defaultImageModel       = "gemini-2.5-flash-image"
	defaultDialogueLanguage = "Bahasa Indonesia"
)

var (
	_ llm.ScriptWriter   = (*Gateway)(nil)
	_ llm.ImageGenerator = (*Gateway)(nil)
)

// ContentGenerator is the slice of the genai client the gateway calls.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	TextModel        string
	ImageModel       string
	Prompts          *prompts.Prompts
	Lenient          bool
	DialogueLanguage string
}

type Gateway struct {
	models ContentGenerator
	opts   Options
}

func NewGateway(models ContentGenerator, opts Options) *Gateway {
	if opts.TextModel == "" {
		opts.TextModel = defaultTextModel
	}
	if opts.ImageModel == "" {
		opts.ImageModel = defaultImageModel
	}
	if opts.Prompts == nil {
		opts.Prompts = prompts.Default()
	}
	if opts.DialogueLanguage == "" {
		opts.DialogueLanguage = defaultDialogueLanguage
	}
	return &Gateway{models: models, opts: opts}
}

// NewClient builds a genai client for the configured backend and wraps it
// in a Gateway.
func NewClient(ctx context.Context, cfg *config.Config, p *prompts.Prompts) (*Gateway, error) {
	cc := &genai.ClientConfig{
		HTTPClient: newHTTPClient(cfg.Retry),
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.Gemini.BaseURL,
		},
	}
	if cfg.Gemini.Timeout > 0 {
		cc.HTTPOptions.Timeout = genai.Ptr(cfg.Gemini.Timeout)
	}

	switch cfg.Gemini.Backend {
	case config.BackendVertex:
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.GCPProject
		cc.Location = cfg.GCPLocation
		if err := cc.UseDefaultCredentials(); err != nil {
			return nil, fmt.Errorf("load default credentials: %w", err)
		}
	default:
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.GeminiAPIKey
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return NewGateway(client.Models, Options{
		TextModel:        cfg.Gemini.TextModel,
		ImageModel:       cfg.Gemini.ImageModel,
		Prompts:          p,
		Lenient:          cfg.Gemini.Lenient,
		DialogueLanguage: cfg.Affiliate.DialogueLanguage,
	}), nil
}

func newHTTPClient(rc config.RetryConfig) *http.Client {
	client := &http.Client{}
	if rc.MaxRetries <= 0 {
		return client
	}
	return httputil.NewRetryClient(client, httputil.RetryConfig{
		MaxRetries:   rc.MaxRetries,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.Multiplier,
	})
}

func (g *Gateway) GenerateStoryContent(ctx context.Context, req llm.StoryRequest) (*llm.StoryResult, error) {
	params := prompts.StoryParams{
		Title:       req.Title,
		NumScenes:   req.NumScenes,
		VisualStyle: req.VisualStyle,
		Language:    req.Language,
	}
	system, err := g.opts.Prompts.RenderStorySystem(params)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	task, err := g.opts.Prompts.RenderStoryTask(params)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	slog.Info("Generating story", "title", req.Title, "scenes", req.NumScenes, "model", g.opts.TextModel)

	text, err := g.generateJSON(ctx, system, []llm.Part{llm.TextPart{Text: task}}, StorySchema)
	if err != nil {
		return nil, err
	}
	return llm.ParseStory(req, text, g.opts.Lenient)
}

func (g *Gateway) GenerateAffiliateContent(ctx context.Context, req llm.AffiliateRequest) (*llm.AffiliateResult, error) {
	params := prompts.AffiliateParams{
		ProductName:        req.ProductName,
		CustomInstructions: req.CustomInstructions,
		Style:              req.Style,
		NumScenes:          req.NumScenes,
		DialogueLanguage:   g.opts.DialogueLanguage,
	}
	system, err := g.opts.Prompts.RenderAffiliateSystem(params)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	task, err := g.opts.Prompts.RenderAffiliateTask(params)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	parts := []llm.Part{llm.TextPart{Text: task}}
	for _, uri := range []string{req.ProductImage, req.ModelImage} {
		if uri == "" {
			continue
		}
		part, err := inlinePart(uri)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	slog.Info("Generating affiliate content",
		"product", req.ProductName,
		"scenes", req.NumScenes,
		"images", len(parts)-1,
		"model", g.opts.TextModel,
	)

	text, err := g.generateJSON(ctx, system, parts, AffiliateSchema)
	if err != nil {
		return nil, err
	}
	return llm.ParseAffiliate(req, text, g.opts.Lenient)
}

func (g *Gateway) GenerateImage(ctx context.Context, req llm.ImageRequest) (string, error) {
	ratio, err := req.AspectRatio.Resolve()
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, req.AspectRatio)
	}

	prompt, err := g.opts.Prompts.RenderImage(prompts.ImageParams{Prompt: req.Prompt})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	parts := []llm.Part{llm.TextPart{Text: prompt}}
	if req.ReferenceImage != "" {
		part, err := inlinePart(req.ReferenceImage)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	slog.Info("Generating image", "aspect_ratio", ratio, "reference", req.ReferenceImage != "", "model", g.opts.ImageModel)

	resp, err := g.models.GenerateContent(ctx, g.opts.ImageModel, contents(parts), &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: string(ratio)},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	blob := firstInlineData(resp)
	if blob == nil {
		return "", llm.ErrNoImage
	}
	// Callers always receive a png data-URI; the payload is passed through
	// as the provider returned it.
	return datauri.Encode(datauri.DefaultMIMEType, blob.Data), nil
}

func (g *Gateway) generateJSON(ctx context.Context, systemPrompt string, parts []llm.Part, schema *genai.Schema) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	slog.Debug("Sending prompt", "model", g.opts.TextModel, "system_chars", len(systemPrompt), "parts", len(parts))

	resp, err := g.models.GenerateContent(ctx, g.opts.TextModel, contents(parts), genConfig)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

func inlinePart(uri string) (llm.InlinePart, error) {
	d, err := datauri.Parse(uri)
	if err != nil {
		return llm.InlinePart{}, err
	}
	return llm.InlinePart{MIMEType: d.MIMEType, Data: d.Data}, nil
}

func contents(parts []llm.Part) []*genai.Content {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		switch p := p.(type) {
		case llm.TextPart:
			out = append(out, genai.NewPartFromText(p.Text))
		case llm.InlinePart:
			out = append(out, genai.NewPartFromBytes(p.Data, p.MIMEType))
		}
	}
	return []*genai.Content{genai.NewContentFromParts(out, genai.RoleUser)}
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil {
			return part.InlineData
		}
	}
	return nil
}
