// Package refs retrieves bibliographic citations for a topic and flags
// citations with no lexical overlap to it.
package refs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"autoblogger/internal/model"
)

const eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// Searcher retrieves up to limit citations for a search term.
// An empty result is a normal outcome, not an error.
type Searcher interface {
	Fetch(ctx context.Context, term string, limit int) ([]model.Reference, error)
}

// PubmedClient talks to the NCBI eutils endpoints: esearch (XML) for ids,
// esummary (JSON) for per-id metadata.
type PubmedClient struct {
	client *http.Client
}

// NewPubmedClient creates a PubMed search client.
func NewPubmedClient(timeout time.Duration) *PubmedClient {
	return &PubmedClient{client: &http.Client{Timeout: timeout}}
}

var _ Searcher = (*PubmedClient)(nil)

// SearchTerm maps a seed category to its fixed topical search term. This is a
// coarse heuristic, not a true relevance query.
func SearchTerm(seedType string) string {
	switch seedType {
	case model.SeedTennis:
		return "tennis warm-up injury prevention"
	case model.SeedWeights:
		return "resistance training delayed onset muscle soreness warm-up"
	}
	return "musculoskeletal pain self management exercise"
}

var idRe = regexp.MustCompile(`<Id>(\d+)</Id>`)
var yearRe = regexp.MustCompile(`\b(19\d\d|20\d\d)\b`)

// Fetch searches for up to limit candidate ids and resolves their summaries.
func (c *PubmedClient) Fetch(ctx context.Context, term string, limit int) ([]model.Reference, error) {
	if limit <= 0 {
		limit = 3
	}

	xml, err := c.get(ctx, "esearch.fcgi", url.Values{
		"db":      {"pubmed"},
		"sort":    {"relevance"},
		"retmax":  {fmt.Sprint(limit)},
		"term":    {term},
		"retmode": {"xml"},
	})
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, m := range idRe.FindAllStringSubmatch(xml, -1) {
		ids = append(ids, m[1])
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// esummary requires JSON retmode; NCBI sometimes answers XML errors,
	// which fail the decode and degrade to an empty result.
	raw, err := c.get(ctx, "esummary.fcgi", url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	})
	if err != nil {
		return nil, err
	}

	var sum struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal([]byte(raw), &sum); err != nil {
		return nil, nil
	}

	var out []model.Reference
	for _, pmid := range ids {
		entry, ok := sum.Result[pmid]
		if !ok {
			continue
		}
		var it struct {
			Title   string `json:"title"`
			PubDate string `json:"pubdate"`
		}
		if err := json.Unmarshal(entry, &it); err != nil {
			continue
		}
		out = append(out, model.Reference{
			PMID:  pmid,
			Title: strings.TrimSuffix(it.Title, "."),
			Year:  yearRe.FindString(it.PubDate),
			URL:   "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/",
		})
	}
	return out, nil
}

func (c *PubmedClient) get(ctx context.Context, endpoint string, q url.Values) (string, error) {
	var body string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, eutilsBase+endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "autoblogger/1.0")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d from eutils %s", resp.StatusCode, endpoint)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = string(b)
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	return body, nil
}

// FormatMarkdown renders the citation block appended to the ready content.
func FormatMarkdown(references []model.Reference) string {
	if len(references) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n### 참고문헌(논문)\n")
	for i, r := range references {
		year := ""
		if r.Year != "" {
			year = r.Year + "년 "
		}
		b.WriteString(fmt.Sprintf("%d) %s%s %s\n", i+1, year, r.Title, r.URL))
	}
	return b.String()
}
