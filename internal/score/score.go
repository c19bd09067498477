// Package score implements the heuristic quality rubric for draft content.
package score

import (
	"regexp"
	"strings"

	"autoblogger/internal/generate"
	"autoblogger/internal/model"
)

// Result is the scorer output: a total in [0, 99], the per-criterion
// breakdown, and the failure reasons plus fix suggestions they generate.
type Result struct {
	Score     int                 `json:"score"`
	Breakdown model.EvalBreakdown `json:"breakdown"`
	Failures  []string            `json:"failures"`
	Fixes     []string            `json:"fixes"`
}

var (
	digitRe      = regexp.MustCompile(`\d`)
	whySection   = regexp.MustCompile(`##\s+왜`)
	todaySection = regexp.MustCompile(`##\s+오늘`)
	signSection  = regexp.MustCompile(`##\s+이런 신호면`)
)

// Draft scores the rendered draft text. It is a pure function: identical
// input always yields an identical result.
func Draft(md string) Result {
	var failures, fixes []string

	hasTake := strings.Contains(md, "이 글에서 얻는 것")
	hasSections := whySection.MatchString(md) && todaySection.MatchString(md) && signSection.MatchString(md)
	structure := 5
	if hasTake {
		structure = 10
	}
	if hasSections {
		structure += 12
	} else {
		structure += 6
	}

	hasNum := digitRe.MatchString(md)
	specificity := 8
	if hasNum {
		specificity = 18
	} else {
		failures = append(failures, "숫자/수치 예시가 부족")
		fixes = append(fixes, "10~15분, 1~2세트 등 숫자 1개 이상 포함")
	}

	humanizer := 6
	if strings.Contains(md, "?") {
		humanizer = 10
	}

	medicalLegal := 10
	if strings.Contains(md, "### 안내") {
		medicalLegal = 22
	} else {
		failures = append(failures, "안내(일반 정보/개인차/상담) 누락")
		fixes = append(fixes, "말미에 안내 문구 추가")
	}

	seoHits := 0
	for _, k := range generate.SEOKeywords {
		if strings.Contains(md, k) {
			seoHits++
		}
	}
	seo := min(15, 5+seoHits)

	total := clamp(structure+specificity+humanizer+medicalLegal+seo, 0, 99)

	if !hasTake {
		failures = append(failures, "초반에 독자 이득이 명확하지 않음")
		fixes = append(fixes, "도입 직후 ‘이 글에서 얻는 것(3가지)’ 추가")
	}

	return Result{
		Score: total,
		Breakdown: model.EvalBreakdown{
			Structure:    min(25, structure),
			Specificity:  min(20, specificity),
			Humanizer:    min(15, humanizer),
			MedicalLegal: min(25, medicalLegal),
			SEO:          min(15, seo),
		},
		Failures: failures,
		Fixes:    fixes,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
