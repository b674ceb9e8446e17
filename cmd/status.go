package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2/google"

	"storyreel/pkg/config"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

var (
	statusInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	statusSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check which providers and storage backends are configured",
	Long:  `Verify API keys, Google Cloud credentials and the output destination.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println(statusInfoStyle.Render("\nProvider Status:\n"))

	switch cfg.Gemini.Backend {
	case config.BackendVertex:
		if cfg.GCPProject != "" {
			fmt.Println(statusSuccessStyle.Render(fmt.Sprintf("✓ Gemini: Vertex AI (%s, %s)", cfg.GCPProject, cfg.GCPLocation)))
		} else {
			fmt.Println(statusErrorStyle.Render("✗ Gemini: Vertex AI backend needs GOOGLE_CLOUD_PROJECT"))
		}
	default:
		if ok, msg := geminiKeyStatus(cfg); ok {
			fmt.Println(statusSuccessStyle.Render("✓ Gemini: " + msg))
		} else {
			fmt.Println(statusErrorStyle.Render("✗ Gemini: " + msg))
		}
	}
	fmt.Println(statusInfoStyle.Render(fmt.Sprintf("  text: %s, image: %s", cfg.Gemini.TextModel, cfg.Gemini.ImageModel)))

	if cfg.GroqAPIKey != "" {
		fmt.Println(statusSuccessStyle.Render("✓ Groq: API key configured"))
	} else if cfg.Text.Provider == config.ProviderGroq {
		fmt.Println(statusErrorStyle.Render("✗ Groq: text provider is groq but GROQ_API_KEY is missing"))
	} else {
		fmt.Println(statusInfoStyle.Render("○ Groq: not configured (optional)"))
	}

	if _, err := google.FindDefaultCredentials(ctx, cloudPlatformScope); err == nil {
		fmt.Println(statusSuccessStyle.Render("✓ Google Cloud: application default credentials found"))
	} else if cfg.Gemini.Backend == config.BackendVertex || cfg.GCSBucket != "" {
		fmt.Println(statusErrorStyle.Render("✗ Google Cloud: no application default credentials"))
		fmt.Println(statusInfoStyle.Render("  Run: gcloud auth application-default login"))
	} else {
		fmt.Println(statusInfoStyle.Render("○ Google Cloud: no credentials (optional)"))
	}

	if cfg.GCSBucket != "" {
		fmt.Println(statusSuccessStyle.Render(fmt.Sprintf("✓ Output: gs://%s/%s", cfg.GCSBucket, cfg.Output.GCSPrefix)))
	} else {
		fmt.Println(statusSuccessStyle.Render(fmt.Sprintf("✓ Output: %s", cfg.Output.Dir)))
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println(statusErrorStyle.Render(fmt.Sprintf("\n✗ Config invalid: %v", err)))
	}

	fmt.Println()
	return nil
}

func geminiKeyStatus(cfg *config.Config) (bool, string) {
	switch {
	case cfg.GeminiKeyFromSecret:
		return true, "API key loaded from Secret Manager"
	case cfg.GeminiAPIKey != "" && cfg.GeminiAPIKeySecret != "":
		return true, "API key configured (GEMINI_API_KEY set, secret not used)"
	case cfg.GeminiAPIKey != "":
		return true, "API key configured"
	default:
		return false, "missing GEMINI_API_KEY"
	}
}
