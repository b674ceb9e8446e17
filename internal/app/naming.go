package app

import (
	"regexp"
	"strings"

	"storyreel/internal/storage"
)

const maxSlugLength = 40

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func artifactName(kind, title, ext string) string {
	slug := sanitizeForPath(title)
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "_")
	}
	if slug != "" {
		kind += "_" + slug
	}
	return storage.ArtifactName(kind, ext)
}

func sanitizeForPath(s string) string {
	s = strings.ToLower(s)
	s = sanitizeRegex.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

func mimeExt(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
