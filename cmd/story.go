package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"storyreel/internal/app"
	"storyreel/internal/llm"
)

var (
	storyTitle    string
	storyScenes   int
	storyStyle    string
	storyLanguage string

	storyRender      bool
	storySceneAspect string
	storyReference   string
)

var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "Generate a multi-scene cinematic story script",
	Long: `Generate a story script with narration, two structured image prompts per
scene, TikTok and YouTube cover prompts, and hashtags.`,
	Example: `  storyreel story --title "The Lost Forest" --scenes 5 --style "Cinematic 3D"
  storyreel story -t "The Lost Forest" --storyboard --reference style.png`,
	RunE:    runStory,
}

func init() {
	storyCmd.Flags().StringVarP(&storyTitle, "title", "t", "", "Story title")
	storyCmd.Flags().IntVarP(&storyScenes, "scenes", "n", 5, "Number of scenes")
	storyCmd.Flags().StringVarP(&storyStyle, "style", "s", "Cinematic 3D", "Visual style every prompt subject starts with")
	storyCmd.Flags().StringVarP(&storyLanguage, "language", "l", "English", "Narration language")
	storyCmd.Flags().BoolVar(&storyRender, "storyboard", false, "Render every scene prompt and both covers to images")
	storyCmd.Flags().StringVar(&storySceneAspect, "scene-aspect", string(llm.AspectVertical), "Aspect ratio for storyboard scene frames")
	storyCmd.Flags().StringVarP(&storyReference, "reference", "r", "", "Reference image file or data-URI for storyboard frames")
	rootCmd.AddCommand(storyCmd)
}

func runStory(cmd *cobra.Command, args []string) error {
	if storyTitle == "" {
		return errors.New("please provide --title")
	}
	if storyScenes <= 0 {
		return errors.New("--scenes must be positive")
	}

	reference, err := imageArg(storyReference)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	service, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	slog.Info("Generating story...", "title", storyTitle, "scenes", storyScenes)
	pipeline := app.NewPipeline(service)
	out, err := pipeline.Story(ctx, llm.StoryRequest{
		Title:       storyTitle,
		NumScenes:   storyScenes,
		VisualStyle: storyStyle,
		Language:    storyLanguage,
	})
	if err != nil {
		return err
	}

	if !storyRender {
		return printJSON(cmd.OutOrStdout(), out)
	}

	board, err := pipeline.Storyboard(ctx, out.Story, app.StoryboardOptions{
		SceneAspectRatio: llm.AspectRatio(storySceneAspect),
		ReferenceImage:   reference,
	})
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), struct {
		*app.StoryOutput
		Storyboard *app.StoryboardOutput `json:"storyboard"`
	}{out, board})
}
