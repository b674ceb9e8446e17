package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conneroisu/groq-go"
	"google.golang.org/genai"

	"storyreel/internal/gemini"
	"storyreel/internal/llm"
	"storyreel/pkg/prompts"
)

const (
	defaultModel            = "llama-3.3-70b-versatile"
	defaultDialogueLanguage = "Bahasa Indonesia"
)

var _ llm.ScriptWriter = (*Client)(nil)

type Options struct {
	Model            string
	BaseURL          string
	Prompts          *prompts.Prompts
	Lenient          bool
	DialogueLanguage string
}

// Client writes stories and affiliate scripts with a Groq chat model in
// JSON mode. Groq has no response schema support, so the Gemini schema is
// rendered into the system prompt instead.
type Client struct {
	client           *groq.Client
	model            groq.ChatModel
	prompts          *prompts.Prompts
	lenient          bool
	dialogueLanguage string
}

func NewClient(apiKey string, opts Options) (*Client, error) {
	client, err := newGroqClient(apiKey, opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Prompts == nil {
		opts.Prompts = prompts.Default()
	}
	if opts.DialogueLanguage == "" {
		opts.DialogueLanguage = defaultDialogueLanguage
	}

	return &Client{
		client:           client,
		model:            groq.ChatModel(opts.Model),
		prompts:          opts.Prompts,
		lenient:          opts.Lenient,
		dialogueLanguage: opts.DialogueLanguage,
	}, nil
}

func newGroqClient(apiKey, baseURL string) (*groq.Client, error) {
	if baseURL == "" {
		return groq.NewClient(apiKey)
	}
	return groq.NewClient(apiKey, groq.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/"))
}

func (c *Client) GenerateStoryContent(ctx context.Context, req llm.StoryRequest) (*llm.StoryResult, error) {
	params := prompts.StoryParams{
		Title:       req.Title,
		NumScenes:   req.NumScenes,
		VisualStyle: req.VisualStyle,
		Language:    req.Language,
	}
	system, err := c.prompts.RenderStorySystem(params)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	task, err := c.prompts.RenderStoryTask(params)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	slog.Info("Generating story", "title", req.Title, "scenes", req.NumScenes, "model", c.model)

	content, err := c.generateJSON(ctx, system, task, gemini.StorySchema)
	if err != nil {
		return nil, err
	}
	return llm.ParseStory(req, content, c.lenient)
}

func (c *Client) GenerateAffiliateContent(ctx context.Context, req llm.AffiliateRequest) (*llm.AffiliateResult, error) {
	params := prompts.AffiliateParams{
		ProductName:        req.ProductName,
		CustomInstructions: req.CustomInstructions,
		Style:              req.Style,
		NumScenes:          req.NumScenes,
		DialogueLanguage:   c.dialogueLanguage,
	}
	system, err := c.prompts.RenderAffiliateSystem(params)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	task, err := c.prompts.RenderAffiliateTask(params)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	if req.ProductImage != "" || req.ModelImage != "" {
		slog.Warn("Groq text models do not accept images, ignoring attachments", "product", req.ProductName)
	}

	slog.Info("Generating affiliate content", "product", req.ProductName, "scenes", req.NumScenes, "model", c.model)

	content, err := c.generateJSON(ctx, system, task, gemini.AffiliateSchema)
	if err != nil {
		return nil, err
	}
	return llm.ParseAffiliate(req, content, c.lenient)
}

func (c *Client) generateJSON(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema) (string, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	hint, err := c.prompts.RenderSchemaHint(prompts.SchemaParams{Schema: string(schemaJSON)})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: systemPrompt + "\n\n" + hint},
			{Role: groq.RoleUser, Content: userPrompt},
		},
		ResponseFormat: &groq.ChatResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices", llm.ErrIncompleteResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
