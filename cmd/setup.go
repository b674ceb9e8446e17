package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

const geminiKeyURL = "https://aistudio.google.com/apikey"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// envOrder fixes the key order written to .env.
var envOrder = []string{
	"GEMINI_API_KEY",
	"GEMINI_API_KEY_SECRET",
	"GROQ_API_KEY",
	"GOOGLE_CLOUD_PROJECT",
	"GOOGLE_CLOUD_LOCATION",
	"GCS_BUCKET",
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Storyreel",
	Long:  `Configure API keys, Google Cloud and the output directory for Storyreel.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🎬 Storyreel Setup"))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Creating directories", createDirectories},
		{"Configuring environment", configureEnv},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func createDirectories() error {
	if err := os.MkdirAll("output", 0755); err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	fmt.Println(successStyle.Render("✓ Created output directory"))
	return nil
}

func configureEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureGCP(env); err != nil {
		return err
	}

	if err := configureKeys(env); err != nil {
		return err
	}

	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := writeEnv(f, env); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func configureGCP(env map[string]string) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Needed for Vertex AI, Secret Manager and GCS output").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if !setupGCP {
		return nil
	}

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return nil
	}

	project := getActiveProject()
	var location, bucket string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project ID").
				Value(&project).
				Validate(required("Project ID")),
			huh.NewInput().
				Title("Location").
				Placeholder("us-central1").
				Value(&location),
			huh.NewInput().
				Title("GCS bucket for artifacts").
				Description("Leave empty to save to ./output").
				Value(&bucket),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	env["GOOGLE_CLOUD_PROJECT"] = strings.TrimSpace(project)
	env["GOOGLE_CLOUD_LOCATION"] = strings.TrimSpace(location)
	env["GCS_BUCKET"] = strings.TrimSpace(bucket)

	if err := enableGCPAPIs(env["GOOGLE_CLOUD_PROJECT"]); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}

	if err := runWithSpinner("Checking application default credentials", func() error {
		return runSetupCmd("gcloud", "auth", "application-default", "print-access-token")
	}); err != nil {
		fmt.Println(warnStyle.Render("No application default credentials"))
		fmt.Println(infoStyle.Render("  Run: gcloud auth application-default login"))
	}

	return nil
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"aiplatform.googleapis.com",
		"generativelanguage.googleapis.com",
		"secretmanager.googleapis.com",
		"storage.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	})
}

func configureKeys(env map[string]string) error {
	var openBrowser bool
	if err := huh.NewConfirm().
		Title("Open Google AI Studio to create a Gemini API key?").
		Value(&openBrowser).
		Run(); err != nil {
		return err
	}
	if openBrowser {
		fmt.Println(infoStyle.Render("If browser doesn't open, visit:\n" + geminiKeyURL))
		_ = browser.OpenURL(geminiKeyURL)
	}

	var geminiKey, geminiSecret, groqKey string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API Key").
				Description(geminiKeyURL).
				EchoMode(huh.EchoModePassword).
				Value(&geminiKey),
			huh.NewInput().
				Title("Gemini API Key secret (optional)").
				Description("Secret Manager name, used when the key above is empty").
				Placeholder("projects/my-project/secrets/gemini-api-key").
				Value(&geminiSecret),
			huh.NewInput().
				Title("GROQ API Key (optional)").
				Description("https://console.groq.com/keys").
				EchoMode(huh.EchoModePassword).
				Value(&groqKey),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env["GEMINI_API_KEY"] = strings.TrimSpace(geminiKey)
	env["GEMINI_API_KEY_SECRET"] = strings.TrimSpace(geminiSecret)
	env["GROQ_API_KEY"] = strings.TrimSpace(groqKey)

	if env["GEMINI_API_KEY"] == "" && env["GEMINI_API_KEY_SECRET"] == "" && env["GOOGLE_CLOUD_PROJECT"] == "" {
		fmt.Println(warnStyle.Render("No Gemini credentials set - generation will fail until one is added"))
	}
	return nil
}

func writeEnv(w io.Writer, env map[string]string) error {
	for _, key := range envOrder {
		if val, ok := env[key]; ok && val != "" {
			if _, err := fmt.Fprintf(w, "%s=%s\n", key, val); err != nil {
				return err
			}
		}
	}
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Check configuration: storyreel status")
	fmt.Println("  2. Run: storyreel story -t \"your title\" -n 5")
	fmt.Println("  3. Or serve the API: storyreel serve")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
