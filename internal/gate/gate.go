// Package gate validates stage output against per-stage checklists.
// Every stage must score at least Threshold before the pipeline advances.
package gate

import (
	"fmt"
	"regexp"
	"strings"

	"autoblogger/internal/images"
	"autoblogger/internal/model"
)

// Threshold is the fixed passing score for every stage.
const Threshold = 80

var (
	topicSummaryRe   = regexp.MustCompile(`##\s+1~2줄 요약`)
	topicThesisRe    = regexp.MustCompile(`##\s+핵심 메시지`)
	topicOutlineRe   = regexp.MustCompile(`##\s+Outline`)
	topicChecklistRe = regexp.MustCompile(`##\s+체크리스트`)
	topicTagsRe      = regexp.MustCompile(`##\s+태그`)

	outlineImagesRe = regexp.MustCompile(`##\s+이미지 제안\(플레이스홀더\)`)
	outlinePHRe     = regexp.MustCompile(`\[IMAGE: query="[^"]+"`)
	outlineSEORe    = regexp.MustCompile(`##\s+SEO`)

	draftTakeRe   = regexp.MustCompile(`이 글에서 얻는 것\(3가지\)`)
	draftDigitRe  = regexp.MustCompile(`\d`)
	draftNoticeRe = regexp.MustCompile(`###\s+안내`)

	readyImageRe = regexp.MustCompile(`(?i)!\[\]\((images/img_\d+\.(jpg|jpeg|png|webp))\)`)
	readyRefRe   = regexp.MustCompile(`https://pubmed\.ncbi\.nlm\.nih\.gov/(\d+)/`)
)

// Evaluate runs the stage's checklist over the rendered text and returns the
// 0..100 score with the itemized checks. Weighting is stage-specific.
func Evaluate(stage model.Stage, md string) (int, []model.StageCheck) {
	var checks []model.StageCheck
	has := func(re *regexp.Regexp, key, label string) bool {
		pass := re.MatchString(md)
		checks = append(checks, model.StageCheck{Key: key, Label: label, Pass: pass})
		return pass
	}

	switch stage {
	case model.StageTopic:
		passed := countTrue(
			has(topicSummaryRe, "summary", "요약 섹션"),
			has(topicThesisRe, "thesis", "핵심 메시지 섹션"),
			has(topicOutlineRe, "outline", "Outline 섹션"),
			has(topicChecklistRe, "checklist", "체크리스트 섹션"),
			has(topicTagsRe, "tags", "태그 섹션"),
		)
		return passed * 20, checks

	case model.StageOutline:
		passed := countTrue(
			has(outlineImagesRe, "images", "이미지 플레이스홀더 포함"),
			has(outlinePHRe, "ph", "[IMAGE: ...] 라인 존재"),
			has(outlineSEORe, "seo", "SEO 섹션"),
			hasLiteral(&checks, md, "내부링크 정책", "links", "내부링크 정책 명시"),
		)
		return passed * 25, checks

	case model.StageDraft:
		phCount := len(images.ExtractPlaceholders(md))
		phPass := phCount >= 2
		passed := countTrue(
			has(draftTakeRe, "takeaways", "이 글에서 얻는 것(3가지)"),
			has(draftDigitRe, "number", "숫자/수치 예시"),
			hasLiteral(&checks, md, "?", "question", "질문 1개 이상"),
			has(draftNoticeRe, "notice", "안내(개인차/상담)"),
			phPass,
		)
		checks = append(checks, model.StageCheck{
			Key:   "imagePlaceholders",
			Label: "이미지 플레이스홀더(2+) 포함",
			Pass:  phPass,
			Note:  fmt.Sprintf("count=%d", phCount),
		})
		return passed * 20, checks

	case model.StageReady:
		notice := has(draftNoticeRe, "notice", "안내 포함")
		img := readyImageRe.MatchString(md)
		checks = append(checks, model.StageCheck{Key: "images", Label: "이미지 삽입(최소 1개)", Pass: img})
		refs := distinctMatches(readyRefRe, md)
		refsPass := refs >= 3
		checks = append(checks, model.StageCheck{
			Key:   "refs",
			Label: "PubMed 레퍼런스 3개",
			Pass:  refsPass,
			Note:  fmt.Sprintf("count=%d", refs),
		})
		score := countTrue(notice, img, refsPass) * 34
		if score > 100 {
			score = 100
		}
		return score, checks
	}

	// review, eval, naver, published: no structural contract yet.
	checks = append(checks, model.StageCheck{Key: "default", Label: "기본 통과(임시)", Pass: true})
	return 80, checks
}

// AppendReport renders the gate result as a checklist block appended to the
// stage markdown.
func AppendReport(md string, stage model.Stage, score int, checks []model.StageCheck) string {
	var b strings.Builder
	b.WriteString(md)
	b.WriteString("\n\n---\n\n")
	b.WriteString(fmt.Sprintf("## Step Gate (%s)\n\n", stage))
	b.WriteString(fmt.Sprintf("- score: %d (pass >= %d)\n\n", score, Threshold))
	b.WriteString("### checklist\n\n")
	for _, c := range checks {
		mark := " "
		if c.Pass {
			mark = "x"
		}
		b.WriteString(fmt.Sprintf("- [%s] %s", mark, c.Label))
		if c.Note != "" {
			b.WriteString(" (" + c.Note + ")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func hasLiteral(checks *[]model.StageCheck, md, needle, key, label string) bool {
	pass := strings.Contains(md, needle)
	*checks = append(*checks, model.StageCheck{Key: key, Label: label, Pass: pass})
	return pass
}

func countTrue(vs ...bool) int {
	n := 0
	for _, v := range vs {
		if v {
			n++
		}
	}
	return n
}

func distinctMatches(re *regexp.Regexp, md string) int {
	seen := map[string]struct{}{}
	for _, m := range re.FindAllString(md, -1) {
		seen[m] = struct{}{}
	}
	return len(seen)
}
