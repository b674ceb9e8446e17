package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	Story     StoryPrompts     `yaml:"story"`
	Affiliate AffiliatePrompts `yaml:"affiliate"`
	Image     ImagePrompts     `yaml:"image"`
	JSON      JSONPrompts      `yaml:"json"`
}

type StoryPrompts struct {
	System string `yaml:"system"`
	Task   string `yaml:"task"`
}

type AffiliatePrompts struct {
	System string `yaml:"system"`
	Task   string `yaml:"task"`
}

type ImagePrompts struct {
	Prompt string `yaml:"prompt"`
}

type JSONPrompts struct {
	SchemaHint string `yaml:"schema_hint"`
}

type StoryParams struct {
	Title       string
	NumScenes   int
	VisualStyle string
	Language    string
}

type AffiliateParams struct {
	ProductName        string
	CustomInstructions string
	Style              string
	NumScenes          int
	DialogueLanguage   string
}

type ImageParams struct {
	Prompt string
}

type SchemaParams struct {
	Schema string
}

// Default returns the prompts compiled into the binary.
func Default() *Prompts {
	p, err := parse(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts: %v", err))
	}
	return p
}

// Load reads prompts.yaml from the working directory, falling back to the
// embedded defaults when it does not exist.
func Load() (*Prompts, error) {
	if _, err := os.Stat(defaultPromptsPath); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFrom(defaultPromptsPath)
}

// LoadFrom reads path and fills any template it leaves empty from the
// embedded defaults.
func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p, err := parse(data)
	if err != nil {
		return nil, err
	}
	p.fillFrom(Default())
	return p, nil
}

func parse(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return &p, nil
}

func (p *Prompts) fillFrom(d *Prompts) {
	fill(&p.Story.System, d.Story.System)
	fill(&p.Story.Task, d.Story.Task)
	fill(&p.Affiliate.System, d.Affiliate.System)
	fill(&p.Affiliate.Task, d.Affiliate.Task)
	fill(&p.Image.Prompt, d.Image.Prompt)
	fill(&p.JSON.SchemaHint, d.JSON.SchemaHint)
}

func fill(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

func (p *Prompts) RenderStorySystem(params StoryParams) (string, error) {
	return render(p.Story.System, params)
}

func (p *Prompts) RenderStoryTask(params StoryParams) (string, error) {
	return render(p.Story.Task, params)
}

func (p *Prompts) RenderAffiliateSystem(params AffiliateParams) (string, error) {
	return render(p.Affiliate.System, params)
}

func (p *Prompts) RenderAffiliateTask(params AffiliateParams) (string, error) {
	return render(p.Affiliate.Task, params)
}

func (p *Prompts) RenderImage(params ImageParams) (string, error) {
	return render(p.Image.Prompt, params)
}

func (p *Prompts) RenderSchemaHint(params SchemaParams) (string, error) {
	return render(p.JSON.SchemaHint, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
