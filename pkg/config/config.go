package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath       = "config.yaml"
	defaultGeminiBackend    = BackendGemini
	defaultTextModel        = "gemini-3-pro-preview"
	defaultImageModel       = "gemini-2.5-flash-image"
	defaultGeminiTimeout    = 3 * time.Minute
	defaultGroqModel        = "llama-3.3-70b-versatile"
	defaultTextProvider     = ProviderGemini
	defaultOutputDir        = "./output"
	defaultImageFormat      = FormatPNG
	defaultWebPQuality      = 85
	defaultServerAddr       = ":8080"
	defaultDialogueLanguage = "Bahasa Indonesia"
	defaultVertexLocation   = "us-central1"
	defaultRenderWorkers    = 2
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"

	ProviderGemini = "gemini"
	ProviderGroq   = "groq"

	FormatPNG  = "png"
	FormatWebP = "webp"
)

type Config struct {
	GeminiAPIKey       string
	GeminiAPIKeySecret string
	GroqAPIKey         string
	GCPProject         string
	GCPLocation        string
	GCSBucket          string
	CredentialsFile    string

	// GeminiKeyFromSecret is set when GeminiAPIKey came from Secret Manager.
	GeminiKeyFromSecret bool `yaml:"-"`

	Gemini      GeminiConfig    `yaml:"gemini"`
	Groq        GroqConfig      `yaml:"groq"`
	Text        TextConfig      `yaml:"text"`
	Retry       RetryConfig     `yaml:"retry"`
	Output      OutputConfig    `yaml:"output"`
	Server      ServerConfig    `yaml:"server"`
	Affiliate   AffiliateConfig `yaml:"affiliate"`
	Render      RenderConfig    `yaml:"render"`
	PromptsPath string          `yaml:"prompts_path"`
}

type GeminiConfig struct {
	Backend    string        `yaml:"backend"` // "gemini" or "vertex"
	TextModel  string        `yaml:"text_model"`
	ImageModel string        `yaml:"image_model"`
	Timeout    time.Duration `yaml:"timeout"`
	Lenient    bool          `yaml:"lenient"`
	BaseURL    string        `yaml:"base_url"`
}

type GroqConfig struct {
	Model string `yaml:"model"`
}

type TextConfig struct {
	Provider string `yaml:"provider"` // "gemini" or "groq"
}

// RetryConfig with MaxRetries 0 disables retries.
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
}

type OutputConfig struct {
	Dir         string  `yaml:"dir"`
	GCSPrefix   string  `yaml:"gcs_prefix"`
	ImageFormat string  `yaml:"image_format"`
	WebPQuality float32 `yaml:"webp_quality"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type AffiliateConfig struct {
	DialogueLanguage string `yaml:"dialogue_language"`
}

// RenderConfig controls storyboard rendering. Interval 0 disables the
// request rate limit.
type RenderConfig struct {
	Workers  int           `yaml:"workers"`
	Interval time.Duration `yaml:"interval"`
}

var accessSecret = accessSecretVersion

func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiAPIKeySecret: os.Getenv("GEMINI_API_KEY_SECRET"),
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		GCPProject:         os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GCPLocation:        os.Getenv("GOOGLE_CLOUD_LOCATION"),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		CredentialsFile:    os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	}

	if err := loadYAMLConfig(cfg, getEnvOrDefault("STORYREEL_CONFIG", defaultConfigPath)); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if cfg.GeminiAPIKey == "" && cfg.GeminiAPIKeySecret != "" {
		key, err := accessSecret(ctx, secretVersionName(cfg.GeminiAPIKeySecret))
		if err != nil {
			return nil, fmt.Errorf("load gemini api key from secret manager: %w", err)
		}
		cfg.GeminiAPIKey = key
		cfg.GeminiKeyFromSecret = true
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No config file found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyGeminiDefaults(cfg)
	applyGroqDefaults(cfg)
	applyTextDefaults(cfg)
	applyOutputDefaults(cfg)
	applyServerDefaults(cfg)
	applyAffiliateDefaults(cfg)
	applyRenderDefaults(cfg)
}

func applyGeminiDefaults(cfg *Config) {
	if cfg.Gemini.Backend == "" {
		cfg.Gemini.Backend = defaultGeminiBackend
	}
	if cfg.Gemini.TextModel == "" {
		cfg.Gemini.TextModel = defaultTextModel
	}
	if cfg.Gemini.ImageModel == "" {
		cfg.Gemini.ImageModel = defaultImageModel
	}
	if cfg.Gemini.Timeout == 0 {
		cfg.Gemini.Timeout = defaultGeminiTimeout
	}
	if cfg.Gemini.Backend == BackendVertex && cfg.GCPLocation == "" {
		cfg.GCPLocation = defaultVertexLocation
	}
}

func applyGroqDefaults(cfg *Config) {
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}
}

func applyTextDefaults(cfg *Config) {
	if cfg.Text.Provider == "" {
		cfg.Text.Provider = defaultTextProvider
	}
}

func applyOutputDefaults(cfg *Config) {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	if cfg.Output.ImageFormat == "" {
		cfg.Output.ImageFormat = defaultImageFormat
	}
	if cfg.Output.WebPQuality == 0 {
		cfg.Output.WebPQuality = defaultWebPQuality
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
}

func applyAffiliateDefaults(cfg *Config) {
	if cfg.Affiliate.DialogueLanguage == "" {
		cfg.Affiliate.DialogueLanguage = defaultDialogueLanguage
	}
}

func applyRenderDefaults(cfg *Config) {
	if cfg.Render.Workers == 0 {
		cfg.Render.Workers = defaultRenderWorkers
	}
}

// Validate reports configuration that would make the selected providers
// unusable.
func (c *Config) Validate() error {
	var problems []string

	switch c.Gemini.Backend {
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			problems = append(problems, "GEMINI_API_KEY (or GEMINI_API_KEY_SECRET) is required")
		}
	case BackendVertex:
		if c.GCPProject == "" {
			problems = append(problems, "GOOGLE_CLOUD_PROJECT is required for the vertex backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown gemini backend %q", c.Gemini.Backend))
	}

	switch c.Text.Provider {
	case ProviderGemini:
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			problems = append(problems, "GROQ_API_KEY is required for the groq text provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown text provider %q", c.Text.Provider))
	}

	switch c.Output.ImageFormat {
	case FormatPNG, FormatWebP:
	default:
		problems = append(problems, fmt.Sprintf("unknown image format %q", c.Output.ImageFormat))
	}

	if c.Retry.MaxRetries < 0 {
		problems = append(problems, "retry.max_retries must not be negative")
	}

	if c.Render.Workers < 0 || c.Render.Interval < 0 {
		problems = append(problems, "render.workers and render.interval must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func secretVersionName(name string) string {
	if strings.Contains(name, "/versions/") {
		return name
	}
	return name + "/versions/latest"
}

func accessSecretVersion(ctx context.Context, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("access secret: %w", err)
	}

	return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
