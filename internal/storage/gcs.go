package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var _ Store = (*GCSStorage)(nil)

type GCSStorage struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSStorage(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: bucket,
		prefix: strings.TrimPrefix(prefix, "/"),
	}, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) objectName(name string) string {
	return path.Join(s.prefix, path.Base(name))
}

func (s *GCSStorage) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	objName := s.objectName(name)

	w := s.client.Bucket(s.bucket).Object(objName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", objName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objName, err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objName), nil
}

func (s *GCSStorage) List(ctx context.Context) ([]Artifact, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix})

	var artifacts []Artifact
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}

		artifacts = append(artifacts, Artifact{
			Name:     path.Base(attrs.Name),
			Location: fmt.Sprintf("gs://%s/%s", s.bucket, attrs.Name),
			Size:     attrs.Size,
			Updated:  attrs.Updated,
		})
	}

	return artifacts, nil
}
