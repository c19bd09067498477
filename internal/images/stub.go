package images

import (
	"context"
	"net/url"
	"strings"
)

// StubSearcher returns deterministic mock matches (for development/testing).
type StubSearcher struct{}

func (s *StubSearcher) BestMatch(_ context.Context, query string) (*SearchResult, error) {
	slug := strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
	if slug == "" {
		return nil, nil
	}
	return &SearchResult{
		URL:            "https://upload.example.org/" + url.PathEscape(slug) + ".jpg",
		License:        "CC BY-SA 4.0",
		Artist:         "Stub Artist",
		AttributionURL: "https://commons.example.org/wiki/File:" + url.PathEscape(slug) + ".jpg",
	}, nil
}

// StubDownloader returns a tiny fixed payload instead of fetching anything.
type StubDownloader struct{}

func (d *StubDownloader) Download(_ context.Context, _ string) ([]byte, error) {
	// Smallest possible valid JPEG-ish marker; enough for file-based checks.
	return []byte{0xFF, 0xD8, 0xFF, 0xD9}, nil
}
