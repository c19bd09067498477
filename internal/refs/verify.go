package refs

import (
	"regexp"
	"strings"

	"autoblogger/internal/model"
)

var nonWordRe = regexp.MustCompile(`[^a-z0-9가-힣\s]`)

// tokenize splits text into lowercase alphanumeric-or-hangul words of
// length >= 3.
func tokenize(s string) []string {
	s = nonWordRe.ReplaceAllString(strings.ToLower(s), " ")
	var out []string
	for _, t := range strings.Fields(s) {
		if len([]rune(t)) >= 3 {
			out = append(out, t)
		}
	}
	return out
}

// Verify flags references whose title shares no token with the topic title.
// Failures never remove a reference; they only degrade the ready gate.
func Verify(topic string, references []model.Reference) (ok bool, failures []string) {
	topicTokens := map[string]struct{}{}
	for _, t := range tokenize(topic) {
		topicTokens[t] = struct{}{}
	}

	for _, r := range references {
		hit := false
		for _, t := range tokenize(r.Title) {
			if _, found := topicTokens[t]; found {
				hit = true
				break
			}
		}
		if !hit {
			failures = append(failures, "ref not obviously on-topic: PMID "+r.PMID)
		}
	}
	return len(failures) == 0, failures
}
