package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// DecodeJSON unmarshals provider text into v. Empty text decodes as "{}".
func DecodeJSON(text string, v any) error {
	if strings.TrimSpace(text) == "" {
		text = "{}"
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// ParseStory decodes and validates a story response. In lenient mode a
// validation failure is logged and the partial result returned.
func ParseStory(req StoryRequest, text string, lenient bool) (*StoryResult, error) {
	var result StoryResult
	if err := DecodeJSON(text, &result); err != nil {
		return nil, err
	}
	result.Hashtags = UniqueHashtags(result.Hashtags)

	if err := check(ValidateStory(req, &result), lenient); err != nil {
		return nil, err
	}

	if paths := SubjectMismatches(req.VisualStyle, &result); len(paths) > 0 {
		slog.Warn("Structured prompt subject does not start with visual style",
			"style", req.VisualStyle,
			"prompts", paths,
		)
	}
	return &result, nil
}

func ParseAffiliate(req AffiliateRequest, text string, lenient bool) (*AffiliateResult, error) {
	var result AffiliateResult
	if err := DecodeJSON(text, &result); err != nil {
		return nil, err
	}

	if err := check(ValidateAffiliate(req, &result), lenient); err != nil {
		return nil, err
	}
	return &result, nil
}

func check(err error, lenient bool) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if lenient && errors.As(err, &verr) {
		slog.Warn("Returning incomplete response", "kind", verr.Kind, "problems", len(verr.Problems))
		return nil
	}
	return err
}
