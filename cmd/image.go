package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/app"
	"storyreel/internal/llm"
)

var (
	imageAspect    string
	imageReference string
	imagePrintURI  bool
)

var imageCmd = &cobra.Command{
	Use:     "image <prompt>",
	Short:   "Generate an image from a prompt and optional reference image",
	Example: `  storyreel image "a red bicycle" --aspect 16:9 --reference style.png`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runImage,
}

func init() {
	imageCmd.Flags().StringVarP(&imageAspect, "aspect", "a", string(llm.DefaultAspectRatio), "Aspect ratio: "+aspectRatioList())
	imageCmd.Flags().StringVarP(&imageReference, "reference", "r", "", "Reference image file or data-URI")
	imageCmd.Flags().BoolVar(&imagePrintURI, "print-uri", false, "Print the data-URI instead of the saved location")
	rootCmd.AddCommand(imageCmd)
}

func aspectRatioList() string {
	ratios := llm.AspectRatios()
	names := make([]string, len(ratios))
	for i, r := range ratios {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func runImage(cmd *cobra.Command, args []string) error {
	ratio, err := llm.AspectRatio(imageAspect).Resolve()
	if err != nil {
		return fmt.Errorf("%w: %q (want one of %s)", err, imageAspect, aspectRatioList())
	}

	reference, err := imageArg(imageReference)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	service, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	prompt := strings.Join(args, " ")
	slog.Info("Generating image...", "aspect_ratio", ratio)
	out, err := app.NewPipeline(service).Image(ctx, llm.ImageRequest{
		Prompt:         prompt,
		AspectRatio:    ratio,
		ReferenceImage: reference,
	})
	if err != nil {
		return err
	}

	if imagePrintURI || out.Location == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out.Image)
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out.Location)
	return err
}
