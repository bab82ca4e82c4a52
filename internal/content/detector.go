package content

import (
	"context"
	"strings"
)

// Detector returns object labels found in an image.
type Detector interface {
	Detect(ctx context.Context, path string) ([]string, error)
}

// DetectorFunc adapts a function into a Detector.
type DetectorFunc func(ctx context.Context, path string) ([]string, error)

func (f DetectorFunc) Detect(ctx context.Context, path string) ([]string, error) {
	return f(ctx, path)
}

// NopDetector finds nothing. It backs the "none" detector setting.
type NopDetector struct{}

func (NopDetector) Detect(context.Context, string) ([]string, error) { return nil, nil }

// Tagger is the remote call behind LLMDetector.
type Tagger interface {
	DetectObjects(ctx context.Context, imagePath, detail string) ([]string, error)
}

// LLMDetector tags images through a vision-capable reasoning service.
type LLMDetector struct {
	Tagger Tagger
	Detail string
}

func (d LLMDetector) Detect(ctx context.Context, path string) ([]string, error) {
	tags, err := d.Tagger.DetectObjects(ctx, path, d.Detail)
	if err != nil {
		return nil, err
	}
	return normalizeTags(tags), nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
