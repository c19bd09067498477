// Package generate renders stage content from templates. All generators are
// pure functions of their inputs plus an explicit Picker, so generation is
// reproducible given the same seed.
package generate

import (
	"fmt"
	"regexp"
	"strings"
)

var digitRe = regexp.MustCompile(`\d`)

func hasNumber(s string) bool {
	return digitRe.MatchString(s)
}

// TopicCard renders the topic-stage card. Carried-forward fix suggestions
// from a previous loop (at most 5) are surfaced as a visible improvements block.
func TopicCard(title, seedType string, evalFixes []string, p Picker) string {
	summary := title + " 상황에서, 오늘 당장 안전하게 조절할 기준과 루틴을 정리합니다."
	thesis := pick(p, []string{
		"컨디션이 떨어진 날엔 ‘강행’보다 ‘조절’이 실력과 몸을 같이 지키는 방법입니다.",
		"불편함은 신호입니다. 해석하고 조절하면 악화를 막을 수 있어요.",
	})

	outline := topicOutline(seedType)
	if len(outline) > 8 {
		outline = outline[:8]
	}
	var numbered []string
	for i, s := range outline {
		numbered = append(numbered, fmt.Sprintf("%d) %s", i+1, s))
	}

	checklist := []string{
		"오늘 컨디션을 0~10으로 점수 매기고(주관적), 7 이상이면 강도/볼륨을 낮춘다",
		numberExample(seedType),
		"날카로운 통증/찌릿함/힘 빠짐이 동반되면 중단한다",
	}

	var patch string
	if len(evalFixes) > 0 {
		fixes := evalFixes
		if len(fixes) > 5 {
			fixes = fixes[:5]
		}
		var b strings.Builder
		b.WriteString("\n\n## 이번 루프 보완 포인트(Eval 기반)\n")
		for _, f := range fixes {
			b.WriteString("- " + f + "\n")
		}
		patch = b.String()
	}

	return "# Topic Card\n\n" +
		"## 1~2줄 요약\n- " + summary + "\n\n" +
		"## 핵심 메시지\n- " + thesis + "\n\n" +
		"## Outline\n" + strings.Join(numbered, "\n") + "\n\n" +
		"## 체크리스트\n- " + strings.Join(checklist, "\n- ") + "\n\n" +
		"## 태그\n- " + tags(seedType) + "\n" +
		patch
}

// OutlinePacket renders the outline-stage packet: section list, image
// placeholder directives, the required SEO keyword block, and the
// internal-linking policy line.
func OutlinePacket(title, seedType string, p Picker) string {
	oneLine := pick(p, takeaways(seedType))

	var images []string
	for _, d := range placeholderDirectives(seedType) {
		images = append(images, "- "+d)
	}

	var seo []string
	for _, k := range SEOKeywords {
		seo = append(seo, "- "+k)
	}

	return "# Outline Packet\n\n" +
		"## 제목\n" + title + "\n\n" +
		"## 한줄 요약\n" + oneLine + "\n\n" +
		"## 아웃라인\n- " + strings.Join(packetOutline(seedType), "\n- ") + "\n\n" +
		"## 이미지 제안(플레이스홀더)\n" + strings.Join(images, "\n") + "\n\n" +
		"## SEO(자연스럽게)\n" + strings.Join(seo, "\n") + "\n\n" +
		"## 내부링크 정책\n" + InternalLinkPolicy + "\n"
}

// Draft expands topic and outline into the full draft text: empathy hook,
// benefit list, quantified example, actionable checklist, escalation signals,
// treatment guidance and the closing disclaimer block.
func Draft(title, seedType string) string {
	hook := empathyHook(seedType, strings.ToLower(title))
	numLine := numberExample(seedType)
	take := takeaways(seedType)

	seoLine := "광화문·종로 쪽에서 통증의학과/정형외과 상담이 필요하면, " +
		"상태에 따라 충격파/도수/주사 같은 옵션을 의료진과 상의하는 흐름이 일반적입니다(홍보 목적 아님)."

	var b strings.Builder
	b.WriteString("# " + title + "\n\n")
	b.WriteString(hook + "\n")
	b.WriteString("오늘은 몸이 안 따라오는 날에도, **안전하게 조절하는 기준**을 정리해드립니다.\n\n")
	b.WriteString("이 글에서 얻는 것(3가지)\n")
	for _, t := range take {
		b.WriteString("- " + t + "\n")
	}
	b.WriteString("\n## 왜 몸이 늦게 풀릴까요?\n")
	b.WriteString("근육통이 남아있는 날은 ‘아픈 것’만 문제가 아닐 수 있어요. 반응이 늦습니다.\n")
	b.WriteString("추운 날씨는 이 시간을 더 길게 만들기도 합니다.\n\n")
	b.WriteString("## 오늘 바로 적용(숫자 + 참여)\n")
	b.WriteString(numLine + "\n")
	b.WriteString("그리고 한 번만 체크해보세요.\n")
	b.WriteString("- 스플릿 스텝이 평소보다 늦는지\n")
	b.WriteString("- 첫 2~3발이 ‘무겁게’ 느껴지는지\n\n")
	b.WriteString("## 오늘은 이렇게 조절해보세요\n")
	for _, c := range draftChecklist(seedType) {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\n## 이런 신호면 진료를 권합니다\n")
	for _, s := range visitSignals() {
		b.WriteString("- " + s + "\n")
	}
	b.WriteString("\n치료는 상태에 따라 달라집니다. " + seoLine + "\n\n")
	b.WriteString("참고로 의료진이 언급하는 치료 옵션은 보통 이런 범주입니다.\n")
	for _, t := range treatments() {
		b.WriteString("- " + t + "\n")
	}
	b.WriteString("\n예방이 최선입니다. ‘되게’ 하기보다 ‘안전하게’ 오래 가는 쪽이 결국 실력도 지켜줍니다.\n\n")
	b.WriteString("---\n\n### 안내\n")
	b.WriteString("이 글은 일반 정보입니다. 개인별 원인/진단/치료는 다를 수 있습니다. 증상이 지속되거나 악화되면 전문의 상담이 필요합니다.\n")
	return b.String()
}

// ReviewComments scans the draft for the structural markers (benefit list,
// any digit, disclaimer) and appends a found-issues / suggested-fixes block.
// A clean draft gets a single generic stylistic suggestion.
func ReviewComments(draftMD string) (reviewMD string, reasons, fixes []string) {
	var failures []string

	if !strings.Contains(draftMD, "이 글에서 얻는 것") {
		failures = append(failures, "초반에 ‘이 글에서 얻는 것’이 보이지 않음")
		fixes = append(fixes, "도입 직후 ‘이 글에서 얻는 것(3가지)’ 섹션을 추가")
	}
	if !hasNumber(draftMD) {
		failures = append(failures, "구체 수치/숫자 예시가 부족함")
		fixes = append(fixes, "워밍업 10~15분/세트 1~2세트 조절처럼 숫자 1개 이상 추가")
	}
	if !strings.Contains(draftMD, "### 안내") {
		failures = append(failures, "개인차/상담 안내 문구 누락")
		fixes = append(fixes, "말미에 안내 문구(일반 정보/개인차/상담)를 포함")
	}
	if len(failures) == 0 {
		fixes = append(fixes, "반복 문장만 줄이고, 짧은 문장 1~2개 더 섞기")
	}

	var b strings.Builder
	b.WriteString(draftMD)
	b.WriteString("\n\n## Review Comments (보완 포인트)\n")
	if len(failures) > 0 {
		for _, f := range failures {
			b.WriteString("- 발견: " + f + "\n")
		}
	} else {
		b.WriteString("- 발견: 큰 문제 없음\n")
	}
	for _, f := range fixes {
		b.WriteString("- 수정: " + f + "\n")
	}

	reasons = failures
	if len(reasons) == 0 {
		reasons = []string{"구조/가독성/리스크 문구가 안정적임"}
	}
	return b.String(), reasons, fixes
}

// LoopBackTopic renders the minimal topic placeholder for a loop restart
// after a sub-threshold eval score, carrying the loop's fix suggestions.
func LoopBackTopic(title string, score int, fixes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n(Eval 점수 미달: %d점)\n\n이번 루프에서는 “독자 이득/구체 수치/실천 가이드”를 더 선명하게 보강합니다.\n", title, score)
	if len(fixes) > 0 {
		b.WriteString("\n## 보완 포인트\n")
		for _, f := range fixes {
			b.WriteString("- " + f + "\n")
		}
	}
	return b.String()
}

// LoopBackOutline renders the minimal refreshed outline for a loop restart.
func LoopBackOutline(title string, version int) string {
	return fmt.Sprintf("# %s\n\n## Outline(v%d)\n- 도입: 공감 + 질문 + 얻는 것\n- 중간: 구체 수치/비유\n- 마무리: 3단계 대응\n", title, version)
}

// EvalReport renders the eval-stage body for the given score and verdict.
func EvalReport(title string, score, minScore int) string {
	verdict := "\n### 결과\n통과 → Ready로 진행\n"
	if score < minScore {
		verdict = "\n### 결과\n점수 미달 → 보완 후 다시 Topic부터 루프\n"
	}
	return fmt.Sprintf("# %s\n\n## Eval\n- score: %d\n- rule: pass if score >= %d\n%s", title, score, minScore, verdict)
}
