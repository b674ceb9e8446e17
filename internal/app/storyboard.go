package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"storyreel/internal/llm"
)

// Frame is one rendered image of a storyboard.
type Frame struct {
	Label       string          `json:"label"`
	AspectRatio llm.AspectRatio `json:"aspectRatio"`
	Prompt      string          `json:"prompt"`
	Image       string          `json:"-"`
	Location    string          `json:"location,omitempty"`
}

type StoryboardOutput struct {
	Frames   []Frame `json:"frames"`
	Location string  `json:"location,omitempty"`
}

type StoryboardOptions struct {
	// SceneAspectRatio applies to scene frames; empty means 9:16.
	SceneAspectRatio llm.AspectRatio
	ReferenceImage   string
}

// Storyboard renders both structured prompts of every scene plus the two
// cover prompts. Frames render concurrently, bounded by render.workers and
// paced by render.interval.
func (pipeline *Pipeline) Storyboard(ctx context.Context, story *llm.StoryResult, opts StoryboardOptions) (*StoryboardOutput, error) {
	sceneRatio := llm.AspectVertical
	if opts.SceneAspectRatio != "" {
		ratio, err := opts.SceneAspectRatio.Resolve()
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, opts.SceneAspectRatio)
		}
		sceneRatio = ratio
	}

	frames := storyboardFrames(story, sceneRatio)
	render := pipeline.service.cfg.Render

	slog.Info("Rendering storyboard", "title", story.Title, "frames", len(frames), "workers", render.Workers)

	eg, egCtx := errgroup.WithContext(ctx)
	if render.Workers > 0 {
		eg.SetLimit(render.Workers)
	}

	var limiter *rate.Limiter
	if render.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(render.Interval), 1)
	}

	for i := range frames {
		frame := &frames[i]
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(egCtx); err != nil {
					return err
				}
			}

			uri, err := pipeline.service.images.GenerateImage(egCtx, llm.ImageRequest{
				Prompt:         frame.Prompt,
				AspectRatio:    frame.AspectRatio,
				ReferenceImage: opts.ReferenceImage,
			})
			if err != nil {
				return fmt.Errorf("render %s: %w", frame.Label, err)
			}

			location, err := pipeline.saveImage(egCtx, frame.Label, story.Title, uri)
			if err != nil {
				return fmt.Errorf("render %s: %w", frame.Label, err)
			}
			frame.Image = uri
			frame.Location = location
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	output := &StoryboardOutput{Frames: frames}
	location, err := pipeline.saveJSON(ctx, artifactName("storyboard", story.Title, "json"), output)
	if err != nil {
		return nil, err
	}
	output.Location = location
	return output, nil
}

func storyboardFrames(story *llm.StoryResult, sceneRatio llm.AspectRatio) []Frame {
	frames := make([]Frame, 0, 2*len(story.Scenes)+2)
	for _, scene := range story.Scenes {
		frames = append(frames,
			Frame{Label: fmt.Sprintf("scene%d-a", scene.Number), AspectRatio: sceneRatio, Prompt: scene.StructuredPrompt1.Text()},
			Frame{Label: fmt.Sprintf("scene%d-b", scene.Number), AspectRatio: sceneRatio, Prompt: scene.StructuredPrompt2.Text()},
		)
	}
	if story.TikTokCover != "" {
		frames = append(frames, Frame{Label: "tiktok-cover", AspectRatio: llm.AspectVertical, Prompt: story.TikTokCover})
	}
	if story.YouTubeCover != "" {
		frames = append(frames, Frame{Label: "youtube-cover", AspectRatio: llm.AspectWidescreen, Prompt: story.YouTubeCover})
	}
	return frames
}
