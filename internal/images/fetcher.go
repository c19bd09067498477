package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"autoblogger/internal/model"
	"autoblogger/internal/store"
)

// allowedLicenses is the fixed allow-list of permissive license names,
// matched case-insensitively as substrings of the metadata license string.
var allowedLicenses = []string{
	"cc by",
	"cc by-sa",
	"cc0",
	"public domain",
}

func licenseAllowed(license string) bool {
	l := strings.ToLower(license)
	for _, a := range allowedLicenses {
		if strings.Contains(l, a) {
			return true
		}
	}
	return false
}

// Fetcher resolves a draft's placeholders to downloaded, credited images.
type Fetcher struct {
	search   Searcher
	download Downloader
	history  store.ImageHistory
}

// NewFetcher wires the search/download clients and the dedupe history.
func NewFetcher(search Searcher, download Downloader, history store.ImageHistory) *Fetcher {
	return &Fetcher{search: search, download: download, history: history}
}

// Result is the outcome of one acquisition batch.
type Result struct {
	Downloaded []model.DownloadedImage
	CreditsMD  string
}

// FetchForDraft resolves each placeholder in the draft, in order. A failed
// search, a disallowed license, an already-used source URL, or a failed
// download each skip that placeholder; the batch never fails as a whole.
// Files are written under outDir as img_NN.<ext>; the source URLs of
// successful downloads are appended to history after the batch.
func (f *Fetcher) FetchForDraft(ctx context.Context, outDir, draftMD string) (Result, error) {
	placeholders := ExtractPlaceholders(draftMD)
	if len(placeholders) == 0 {
		return Result{}, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, err
	}

	var (
		downloaded []model.DownloadedImage
		credits    []string
		usedURLs   []string
	)

	for i, ph := range placeholders {
		info, err := f.search.BestMatch(ctx, ph.Query)
		if err != nil {
			slog.Warn("image search failed", "query", ph.Query, "error", err)
			continue
		}
		if info == nil {
			continue
		}
		if !licenseAllowed(info.License) {
			slog.Info("image license rejected", "query", ph.Query, "license", info.License)
			continue
		}
		seen, err := f.history.SeenImageURL(ctx, info.URL)
		if err != nil {
			return Result{}, fmt.Errorf("check image history: %w", err)
		}
		if seen {
			slog.Info("image already used, skipping", "url", info.URL)
			continue
		}

		data, err := f.download.Download(ctx, info.URL)
		if err != nil {
			slog.Warn("image download failed", "url", info.URL, "error", err)
			continue
		}

		filename := fmt.Sprintf("img_%02d.%s", i+1, extFromURL(info.URL))
		if err := os.WriteFile(filepath.Join(outDir, filename), data, 0o644); err != nil {
			return Result{}, fmt.Errorf("write image: %w", err)
		}

		downloaded = append(downloaded, model.DownloadedImage{
			File:    "images/" + filename,
			URL:     info.URL,
			License: info.License,
		})
		usedURLs = append(usedURLs, info.URL)

		source := info.AttributionURL
		if source == "" {
			source = info.URL
		}
		credits = append(credits, fmt.Sprintf(
			"## %s\n- Source: %s\n- License: %s\n- Author/Artist: %s\n- Retrieved: %s\n",
			filename, source, info.License, info.Artist, time.Now().UTC().Format(time.RFC3339)))
	}

	var creditsMD string
	if len(credits) > 0 {
		creditsMD = "# CREDITS\n\n" + strings.Join(credits, "\n")
		if err := os.WriteFile(filepath.Join(outDir, "CREDITS.md"), []byte(creditsMD), 0o644); err != nil {
			return Result{}, fmt.Errorf("write credits: %w", err)
		}
	}

	if err := f.history.AppendImageURLs(ctx, usedURLs); err != nil {
		return Result{}, fmt.Errorf("append image history: %w", err)
	}

	return Result{Downloaded: downloaded, CreditsMD: creditsMD}, nil
}

func extFromURL(srcURL string) string {
	u, err := url.Parse(srcURL)
	if err != nil {
		return "jpg"
	}
	switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), ".")); ext {
	case "jpg", "jpeg", "png", "webp":
		return ext
	}
	return "jpg"
}
