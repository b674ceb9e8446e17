package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"storyreel/internal/app"
	"storyreel/internal/llm"
)

var (
	affiliateProduct      string
	affiliateInstructions string
	affiliateProductImage string
	affiliateModelImage   string
	affiliateStyle        string
	affiliateScenes       int
)

var affiliateCmd = &cobra.Command{
	Use:   "affiliate",
	Short: "Generate voice-synced affiliate video prompts for a product",
	Long: `Generate a marketing summary, a caption and one image/video prompt pair per
scene. Product and model images may be file paths or data-URIs.`,
	Example: `  storyreel affiliate --product "Herbal Tea" --style "cozy lo-fi" --scenes 3 --product-image tea.png`,
	RunE:    runAffiliate,
}

func init() {
	affiliateCmd.Flags().StringVarP(&affiliateProduct, "product", "p", "", "Product name")
	affiliateCmd.Flags().StringVarP(&affiliateInstructions, "instructions", "i", "", "Additional instructions for the script")
	affiliateCmd.Flags().StringVar(&affiliateProductImage, "product-image", "", "Product image file or data-URI")
	affiliateCmd.Flags().StringVar(&affiliateModelImage, "model-image", "", "Model image file or data-URI")
	affiliateCmd.Flags().StringVarP(&affiliateStyle, "style", "s", "UGC testimonial", "Content style")
	affiliateCmd.Flags().IntVarP(&affiliateScenes, "scenes", "n", 3, "Number of scenes")
	rootCmd.AddCommand(affiliateCmd)
}

func runAffiliate(cmd *cobra.Command, args []string) error {
	if affiliateProduct == "" {
		return errors.New("please provide --product")
	}
	if affiliateScenes <= 0 {
		return errors.New("--scenes must be positive")
	}

	productImage, err := imageArg(affiliateProductImage)
	if err != nil {
		return err
	}
	modelImage, err := imageArg(affiliateModelImage)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	service, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	slog.Info("Generating affiliate content...", "product", affiliateProduct, "scenes", affiliateScenes)
	out, err := app.NewPipeline(service).Affiliate(ctx, llm.AffiliateRequest{
		ProductName:        affiliateProduct,
		CustomInstructions: affiliateInstructions,
		ProductImage:       productImage,
		ModelImage:         modelImage,
		Style:              affiliateStyle,
		NumScenes:          affiliateScenes,
	})
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), out)
}
