package gate

import (
	"strings"
	"testing"

	"autoblogger/internal/generate"
	"autoblogger/internal/model"
)

func checkByKey(checks []model.StageCheck, key string) (model.StageCheck, bool) {
	for _, c := range checks {
		if c.Key == key {
			return c, true
		}
	}
	return model.StageCheck{}, false
}

func TestEvaluate_TopicFullCard(t *testing.T) {
	md := generate.TopicCard("제목", model.SeedTennis, nil, generate.FixedPicker(0))
	score, checks := Evaluate(model.StageTopic, md)

	if score != 100 {
		t.Errorf("score = %d, want 100", score)
	}
	if len(checks) != 5 {
		t.Errorf("checks = %d, want 5", len(checks))
	}
}

func TestEvaluate_TopicPartial(t *testing.T) {
	score, _ := Evaluate(model.StageTopic, "## 1~2줄 요약\n\n## 태그\n")
	if score != 40 {
		t.Errorf("score = %d, want 40", score)
	}
}

func TestEvaluate_OutlinePacket(t *testing.T) {
	md := generate.OutlinePacket("제목", model.SeedTennis, generate.FixedPicker(0))
	score, _ := Evaluate(model.StageOutline, md)
	if score != 100 {
		t.Errorf("score = %d, want 100", score)
	}
}

// draftBase passes every draft check except the placeholder count.
const draftBase = "# 제목\n\n이 글에서 얻는 것(3가지)\n- 하나\n\n워밍업 10~15분. 체크해보셨나요?\n\n### 안내\n일반 정보입니다.\n"

func TestEvaluate_DraftPlaceholderBoundary(t *testing.T) {
	one := draftBase + "\n[IMAGE: query=\"tennis warm up\" alt=\"\" caption=\"\" slot=\"hook\"]\n"
	two := one + "[IMAGE: query=\"dynamic stretching\" alt=\"\" caption=\"\" slot=\"checklist\"]\n"

	score1, checks1 := Evaluate(model.StageDraft, one)
	c, ok := checkByKey(checks1, "imagePlaceholders")
	if !ok {
		t.Fatal("imagePlaceholders check missing")
	}
	if c.Pass {
		t.Error("count=1 passed the placeholder check, want fail")
	}
	if c.Note != "count=1" {
		t.Errorf("Note = %q, want count=1", c.Note)
	}
	if score1 != 80 {
		t.Errorf("score with 1 placeholder = %d, want 80", score1)
	}

	score2, checks2 := Evaluate(model.StageDraft, two)
	c, _ = checkByKey(checks2, "imagePlaceholders")
	if !c.Pass {
		t.Error("count=2 failed the placeholder check, want pass")
	}
	if score2 != 100 {
		t.Errorf("score with 2 placeholders = %d, want 100", score2)
	}
}

func TestEvaluate_ReadyArithmetic(t *testing.T) {
	// notice=true, images=false, refs=true: 2 x 34 = 68, not capped.
	md := "### 안내\n일반 정보입니다.\n\n### 참고문헌(논문)\n" +
		"1) https://pubmed.ncbi.nlm.nih.gov/30000001/\n" +
		"2) https://pubmed.ncbi.nlm.nih.gov/30000002/\n" +
		"3) https://pubmed.ncbi.nlm.nih.gov/30000003/\n"
	score, checks := Evaluate(model.StageReady, md)
	if score != 68 {
		t.Errorf("score = %d, want 68", score)
	}
	if c, _ := checkByKey(checks, "images"); c.Pass {
		t.Error("images check passed without an image")
	}
	if c, _ := checkByKey(checks, "refs"); !c.Pass || c.Note != "count=3" {
		t.Errorf("refs check = %+v, want pass with count=3", c)
	}
}

func TestEvaluate_ReadyAllPassCapped(t *testing.T) {
	md := "![](images/img_01.jpg)\n\n### 안내\n\n" +
		"1) https://pubmed.ncbi.nlm.nih.gov/1/\n" +
		"2) https://pubmed.ncbi.nlm.nih.gov/2/\n" +
		"3) https://pubmed.ncbi.nlm.nih.gov/3/\n"
	score, _ := Evaluate(model.StageReady, md)
	if score != 100 {
		t.Errorf("score = %d, want 100 (3 x 34 capped)", score)
	}
}

func TestEvaluate_ReadyCountsDistinctRefs(t *testing.T) {
	md := "### 안내\n" + strings.Repeat("https://pubmed.ncbi.nlm.nih.gov/42/\n", 5)
	_, checks := Evaluate(model.StageReady, md)
	c, _ := checkByKey(checks, "refs")
	if c.Pass {
		t.Error("duplicate refs counted as distinct")
	}
	if c.Note != "count=1" {
		t.Errorf("Note = %q, want count=1", c.Note)
	}
}

func TestEvaluate_DefaultStages(t *testing.T) {
	for _, stg := range []model.Stage{model.StageReview, model.StageEval, model.StageNaver, model.StagePublished} {
		score, checks := Evaluate(stg, "아무 내용")
		if score != 80 {
			t.Errorf("%s score = %d, want 80", stg, score)
		}
		if len(checks) != 1 || !checks[0].Pass {
			t.Errorf("%s checks = %+v", stg, checks)
		}
	}
}

func TestAppendReport(t *testing.T) {
	checks := []model.StageCheck{
		{Key: "a", Label: "통과 항목", Pass: true},
		{Key: "b", Label: "실패 항목", Pass: false, Note: "count=1"},
	}
	out := AppendReport("본문", model.StageDraft, 80, checks)

	if !strings.HasPrefix(out, "본문") {
		t.Error("report does not preserve original text")
	}
	if !strings.Contains(out, "## Step Gate (draft)") {
		t.Error("gate heading missing")
	}
	if !strings.Contains(out, "- score: 80 (pass >= 80)") {
		t.Error("score line missing")
	}
	if !strings.Contains(out, "- [x] 통과 항목") {
		t.Error("passing check missing")
	}
	if !strings.Contains(out, "- [ ] 실패 항목 (count=1)") {
		t.Error("failing check with note missing")
	}
}
