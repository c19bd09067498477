package refs

import (
	"context"

	"autoblogger/internal/model"
)

// StubSearcher returns fixed citations (for development/testing).
type StubSearcher struct{}

func (s *StubSearcher) Fetch(_ context.Context, term string, limit int) ([]model.Reference, error) {
	refs := []model.Reference{
		{PMID: "30000001", Title: "Warm-up strategies and injury prevention in tennis players", Year: "2019", URL: "https://pubmed.ncbi.nlm.nih.gov/30000001/"},
		{PMID: "30000002", Title: "Dynamic stretching and neuromuscular readiness in tennis: a review", Year: "2021", URL: "https://pubmed.ncbi.nlm.nih.gov/30000002/"},
		{PMID: "30000003", Title: "Delayed onset muscle soreness and next-day tennis performance", Year: "2020", URL: "https://pubmed.ncbi.nlm.nih.gov/30000003/"},
	}
	if limit > 0 && limit < len(refs) {
		refs = refs[:limit]
	}
	return refs, nil
}
