package llm

import (
	"fmt"
	"strings"
)

// ValidationError reports every way a parsed response misses its schema.
type ValidationError struct {
	Kind     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s response: %s", e.Kind, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrIncompleteResponse
}

type checker struct {
	problems []string
}

func (c *checker) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.problems = append(c.problems, field+" is missing")
	}
}

func (c *checker) fail(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

func (c *checker) err(kind string) error {
	if len(c.problems) == 0 {
		return nil
	}
	return &ValidationError{Kind: kind, Problems: c.problems}
}

// ValidateStory checks res against the story schema and the scene count and
// numbering that req asked for.
func ValidateStory(req StoryRequest, res *StoryResult) error {
	var c checker
	if res == nil {
		c.fail("result is empty")
		return c.err("story")
	}

	c.require("title", res.Title)
	c.require("visualStyle", res.VisualStyle)
	c.require("language", res.Language)
	c.require("tiktokCover", res.TikTokCover)
	c.require("youtubeCover", res.YouTubeCover)
	if res.NumScenes <= 0 {
		c.fail("numScenes is missing")
	}
	if res.Hashtags == nil {
		c.fail("hashtags is missing")
	}

	if len(res.Scenes) == 0 {
		c.fail("scenes is missing")
	} else if req.NumScenes > 0 && len(res.Scenes) != req.NumScenes {
		c.fail("got %d scenes, want %d", len(res.Scenes), req.NumScenes)
	}

	for i, scene := range res.Scenes {
		prefix := fmt.Sprintf("scenes[%d]", i)
		if int(scene.Number) != i+1 {
			c.fail("%s.number is %d, want %d", prefix, scene.Number, i+1)
		}
		c.require(prefix+".narration", scene.Narration)
		c.require(prefix+".tone", scene.Tone)
		c.structuredPrompt(prefix+".structuredPrompt1", scene.StructuredPrompt1)
		c.structuredPrompt(prefix+".structuredPrompt2", scene.StructuredPrompt2)
	}

	return c.err("story")
}

func (c *checker) structuredPrompt(prefix string, p StructuredPrompt) {
	c.require(prefix+".subject", p.Subject)
	c.require(prefix+".action", p.Action)
	c.require(prefix+".environment", p.Environment)
	c.require(prefix+".camera_movement", p.CameraMovement)
	c.require(prefix+".lighting", p.Lighting)
	c.require(prefix+".visual_style_tags", p.VisualStyleTags)
}

func ValidateAffiliate(req AffiliateRequest, res *AffiliateResult) error {
	var c checker
	if res == nil {
		c.fail("result is empty")
		return c.err("affiliate")
	}

	c.require("summary", res.Summary)
	c.require("caption", res.Caption)

	if len(res.Assets) == 0 {
		c.fail("assets is missing")
	} else if req.NumScenes > 0 && len(res.Assets) != req.NumScenes {
		c.fail("got %d assets, want %d", len(res.Assets), req.NumScenes)
	}

	for i, asset := range res.Assets {
		prefix := fmt.Sprintf("assets[%d]", i)
		c.require(prefix+".label", asset.Label)
		c.require(prefix+".imagePrompt", asset.ImagePrompt)
		c.require(prefix+".videoPrompt", asset.VideoPrompt)
	}

	return c.err("affiliate")
}

// SubjectMismatches returns the paths of structured prompts whose subject does
// not start with style.
func SubjectMismatches(style string, res *StoryResult) []string {
	if res == nil || style == "" {
		return nil
	}

	var out []string
	for i, scene := range res.Scenes {
		if !strings.HasPrefix(scene.StructuredPrompt1.Subject, style) {
			out = append(out, fmt.Sprintf("scenes[%d].structuredPrompt1", i))
		}
		if !strings.HasPrefix(scene.StructuredPrompt2.Subject, style) {
			out = append(out, fmt.Sprintf("scenes[%d].structuredPrompt2", i))
		}
	}
	return out
}

// UniqueHashtags trims and de-duplicates tags, keeping first-seen order.
func UniqueHashtags(tags []string) []string {
	if tags == nil {
		return nil
	}

	result := make([]string, 0, len(tags))
	seen := make(map[string]bool)
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	return result
}
