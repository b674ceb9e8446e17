package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"storyreel/internal/datauri"
	"storyreel/internal/imageconv"
	"storyreel/internal/llm"
)

type Pipeline struct {
	service *Service
}

type StoryOutput struct {
	Story    *llm.StoryResult `json:"story"`
	Location string           `json:"location,omitempty"`
}

type AffiliateOutput struct {
	Affiliate *llm.AffiliateResult `json:"affiliate"`
	Location  string               `json:"location,omitempty"`
}

type ImageOutput struct {
	Image    string `json:"image"`
	Location string `json:"location,omitempty"`
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

func (pipeline *Pipeline) Story(ctx context.Context, req llm.StoryRequest) (*StoryOutput, error) {
	story, err := pipeline.service.writer.GenerateStoryContent(ctx, req)
	if err != nil {
		return nil, err
	}

	location, err := pipeline.saveJSON(ctx, artifactName("story", req.Title, "json"), story)
	if err != nil {
		return nil, err
	}
	return &StoryOutput{Story: story, Location: location}, nil
}

func (pipeline *Pipeline) Affiliate(ctx context.Context, req llm.AffiliateRequest) (*AffiliateOutput, error) {
	result, err := pipeline.service.writer.GenerateAffiliateContent(ctx, req)
	if err != nil {
		return nil, err
	}

	location, err := pipeline.saveJSON(ctx, artifactName("affiliate", req.ProductName, "json"), result)
	if err != nil {
		return nil, err
	}
	return &AffiliateOutput{Affiliate: result, Location: location}, nil
}

func (pipeline *Pipeline) Image(ctx context.Context, req llm.ImageRequest) (*ImageOutput, error) {
	uri, err := pipeline.service.images.GenerateImage(ctx, req)
	if err != nil {
		return nil, err
	}

	location, err := pipeline.saveImage(ctx, "image", "", uri)
	if err != nil {
		return nil, err
	}
	return &ImageOutput{Image: uri, Location: location}, nil
}

// imageType prefers the sniffed type of data over the declared one, since
// generated data-URIs always declare png.
func imageType(data []byte, declared string) string {
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return declared
}

// saveImage stores uri in the configured output format. A failed conversion
// falls back to the original bytes.
func (pipeline *Pipeline) saveImage(ctx context.Context, kind, title, uri string) (string, error) {
	if pipeline.service.storage == nil {
		return "", nil
	}

	img, err := datauri.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	data := img.Data
	mimeType := imageType(data, img.MIMEType)
	ext := mimeExt(mimeType)

	out := pipeline.service.cfg.Output
	converted, err := imageconv.Convert(data, mimeType, out.ImageFormat, out.WebPQuality)
	if err != nil {
		slog.Warn("Image conversion failed, saving original", "format", out.ImageFormat, "error", err)
	} else {
		data, mimeType, ext = converted.Data, converted.MIMEType, converted.Ext
	}

	location, err := pipeline.service.storage.Save(ctx, artifactName(kind, title, ext), data, mimeType)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	slog.Info("Image saved", "location", location, "bytes", len(data))
	return location, nil
}

func (pipeline *Pipeline) saveJSON(ctx context.Context, name string, v any) (string, error) {
	if pipeline.service.storage == nil {
		return "", nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}

	location, err := pipeline.service.storage.Save(ctx, name, data, "application/json")
	if err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	slog.Info("Result saved", "location", location)
	return location, nil
}
