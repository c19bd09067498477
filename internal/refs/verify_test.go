package refs

import (
	"strings"
	"testing"

	"autoblogger/internal/model"
)

func TestVerify_TokenOverlap(t *testing.T) {
	topic := "tennis warm-up"
	refs := []model.Reference{
		{PMID: "1", Title: "Warm-up strategies in tennis players"},
		{PMID: "2", Title: "Gastric emptying rates after abdominal surgery"},
	}

	ok, failures := Verify(topic, refs)
	if ok {
		t.Fatal("ok = true, want false with one off-topic candidate")
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %v, want 1", failures)
	}
	if failures[0] != "ref not obviously on-topic: PMID 2" {
		t.Errorf("failure = %q", failures[0])
	}
}

func TestVerify_AllOnTopic(t *testing.T) {
	ok, failures := Verify("tennis warm-up", []model.Reference{
		{PMID: "1", Title: "Tennis injuries: an overview"},
	})
	if !ok || len(failures) != 0 {
		t.Errorf("ok = %v, failures = %v", ok, failures)
	}
}

func TestVerify_ShortTokensIgnored(t *testing.T) {
	// "up" is shorter than 3 runes and must not count as overlap.
	ok, _ := Verify("warm up", []model.Reference{{PMID: "9", Title: "Up and about: mobility"}})
	if ok {
		t.Error("2-rune token counted as overlap")
	}
}

func TestVerify_HangulTokens(t *testing.T) {
	ok, _ := Verify("테니스 워밍업 루틴", []model.Reference{{PMID: "7", Title: "워밍업 연구 동향"}})
	if !ok {
		t.Error("hangul token overlap not detected")
	}
}

func TestVerify_NoReferences(t *testing.T) {
	ok, failures := Verify("tennis", nil)
	if !ok || failures != nil {
		t.Errorf("ok = %v, failures = %v, want trivially ok", ok, failures)
	}
}

func TestSearchTerm(t *testing.T) {
	cases := map[string]string{
		model.SeedTennis:  "tennis warm-up injury prevention",
		model.SeedWeights: "resistance training delayed onset muscle soreness warm-up",
		model.SeedCases:   "musculoskeletal pain self management exercise",
		"whatever":        "musculoskeletal pain self management exercise",
	}
	for seed, want := range cases {
		if got := SearchTerm(seed); got != want {
			t.Errorf("SearchTerm(%q) = %q, want %q", seed, got, want)
		}
	}
}

func TestFormatMarkdown(t *testing.T) {
	got := FormatMarkdown([]model.Reference{
		{PMID: "1", Title: "Tennis study", Year: "2020", URL: "https://pubmed.ncbi.nlm.nih.gov/1/"},
		{PMID: "2", Title: "No year study", URL: "https://pubmed.ncbi.nlm.nih.gov/2/"},
	})

	if !strings.Contains(got, "### 참고문헌(논문)") {
		t.Error("heading missing")
	}
	if !strings.Contains(got, "1) 2020년 Tennis study https://pubmed.ncbi.nlm.nih.gov/1/") {
		t.Errorf("first line wrong:\n%s", got)
	}
	if !strings.Contains(got, "2) No year study https://pubmed.ncbi.nlm.nih.gov/2/") {
		t.Errorf("year-less line wrong:\n%s", got)
	}
}

func TestFormatMarkdown_Empty(t *testing.T) {
	if got := FormatMarkdown(nil); got != "" {
		t.Errorf("FormatMarkdown(nil) = %q, want empty", got)
	}
}

func TestStubSearcher_RespectsLimit(t *testing.T) {
	s := &StubSearcher{}
	refs, err := s.Fetch(t.Context(), "any", 2)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("len = %d, want 2", len(refs))
	}
}
