package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"storyreel/internal/app"
	"storyreel/internal/datauri"
	"storyreel/pkg/config"
)

func loadService(ctx context.Context) (*app.Service, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.BuildService(ctx, cfg)
}

// imageArg accepts either a data-URI or a path to an image file.
func imageArg(value string) (string, error) {
	if value == "" || strings.HasPrefix(value, "data:") {
		return value, nil
	}
	uri, err := datauri.FromFile(value)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", value, err)
	}
	return uri, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
