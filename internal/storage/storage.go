package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/option"

	"storyreel/pkg/config"
)

// Artifact is a generated file kept by a Store.
type Artifact struct {
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Size     int64     `json:"size"`
	Updated  time.Time `json:"updated"`
}

// Store persists generated artifacts. Save returns the location the artifact
// can be fetched from: a file path or a gs:// URL.
type Store interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	List(ctx context.Context) ([]Artifact, error)
	Close() error
}

// ArtifactName returns a unique file name such as "story-<uuid>.json".
func ArtifactName(kind, ext string) string {
	return fmt.Sprintf("%s-%s.%s", kind, uuid.NewString(), strings.TrimPrefix(ext, "."))
}

// New returns a GCS store when a bucket is configured and a local one
// otherwise.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.GCSBucket == "" {
		return NewLocalStorage(cfg.Output.Dir), nil
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	gcs, err := NewGCSStorage(ctx, cfg.GCSBucket, cfg.Output.GCSPrefix, opts...)
	if err != nil {
		return nil, err
	}
	return gcs, nil
}
