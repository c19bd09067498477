package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const commonsAPI = "https://commons.wikimedia.org/w/api.php"

// SearchResult is the metadata of the best match for one free-text query.
type SearchResult struct {
	URL            string
	License        string
	Artist         string
	Credit         string
	AttributionURL string
}

// Searcher finds the best licensed image match for a query.
// A nil result with nil error means no usable match.
type Searcher interface {
	BestMatch(ctx context.Context, query string) (*SearchResult, error)
}

// Downloader fetches an image binary by source URL.
type Downloader interface {
	Download(ctx context.Context, srcURL string) ([]byte, error)
}

// CommonsClient queries the Wikimedia Commons API for file matches and their
// license metadata. Every call is bounded by the client timeout and retried
// once on failure.
type CommonsClient struct {
	client   *http.Client
	maxBytes int64
}

// NewCommonsClient creates a Commons search/download client.
func NewCommonsClient(timeout time.Duration, maxBytes int64) *CommonsClient {
	return &CommonsClient{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

var (
	_ Searcher   = (*CommonsClient)(nil)
	_ Downloader = (*CommonsClient)(nil)
)

// BestMatch searches the file namespace for the query and resolves the first
// hit's source URL and license metadata.
func (c *CommonsClient) BestMatch(ctx context.Context, query string) (*SearchResult, error) {
	title, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, nil
	}
	return c.imageInfo(ctx, title)
}

func (c *CommonsClient) search(ctx context.Context, query string) (string, error) {
	q := url.Values{
		"origin":      {"*"},
		"format":      {"json"},
		"action":      {"query"},
		"list":        {"search"},
		"srnamespace": {"6"},
		"srsearch":    {query},
		"srlimit":     {"5"},
	}

	var body struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, q, &body); err != nil {
		return "", err
	}
	if len(body.Query.Search) == 0 {
		return "", nil
	}
	return body.Query.Search[0].Title, nil
}

func (c *CommonsClient) imageInfo(ctx context.Context, title string) (*SearchResult, error) {
	q := url.Values{
		"origin": {"*"},
		"format": {"json"},
		"action": {"query"},
		"prop":   {"imageinfo"},
		"iiprop": {"url|extmetadata"},
		"titles": {title},
	}

	var body struct {
		Query struct {
			Pages map[string]struct {
				CanonicalURL string `json:"canonicalurl"`
				ImageInfo    []struct {
					URL         string `json:"url"`
					ExtMetadata map[string]struct {
						Value string `json:"value"`
					} `json:"extmetadata"`
				} `json:"imageinfo"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, q, &body); err != nil {
		return nil, err
	}

	for _, page := range body.Query.Pages {
		if len(page.ImageInfo) == 0 || page.ImageInfo[0].URL == "" {
			continue
		}
		ii := page.ImageInfo[0]
		meta := func(key string) string { return ii.ExtMetadata[key].Value }

		license := meta("LicenseShortName")
		if license == "" {
			license = meta("License")
		}
		attribution := meta("AttributionURL")
		if attribution == "" {
			attribution = page.CanonicalURL
		}
		return &SearchResult{
			URL:            ii.URL,
			License:        license,
			Artist:         meta("Artist"),
			Credit:         meta("Credit"),
			AttributionURL: attribution,
		}, nil
	}
	return nil, nil
}

// Download fetches the image binary, bounded by the configured size limit.
func (c *CommonsClient) Download(ctx context.Context, srcURL string) ([]byte, error) {
	var data []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d for %s", resp.StatusCode, srcURL)
		}
		data, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
		return err
	}
	if err := retryOnce(ctx, op); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *CommonsClient) getJSON(ctx context.Context, q url.Values, out interface{}) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, commonsAPI+"?"+q.Encode(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d from commons", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return retryOnce(ctx, op)
}

const userAgent = "autoblogger/1.0"

// retryOnce runs op with exactly one retry after a short pause. External
// calls never retry beyond that; callers degrade failures to a no-op.
func retryOnce(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 1), ctx)
	return backoff.Retry(op, policy)
}
