package images

import (
	"strings"
	"testing"

	"autoblogger/internal/model"
)

func TestExtractPlaceholders(t *testing.T) {
	md := "# 제목\n\n" +
		`[IMAGE: query="tennis warm up" alt="워밍업" caption="캡션" slot="hook"]` + "\n" +
		"본문\n" +
		`- [IMAGE: query="dynamic stretching" alt="" caption="" slot="checklist"]` + "\n" +
		`[IMAGE: alt="쿼리 없음"]` + "\n"

	got := ExtractPlaceholders(md)
	if len(got) != 2 {
		t.Fatalf("placeholders = %d, want 2 (query-less skipped)", len(got))
	}
	if got[0].Query != "tennis warm up" || got[0].Alt != "워밍업" || got[0].Slot != "hook" {
		t.Errorf("first = %+v", got[0])
	}
	// List-item prefix is accepted.
	if got[1].Query != "dynamic stretching" || got[1].Slot != "checklist" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestExtractPlaceholders_DefaultSlot(t *testing.T) {
	got := ExtractPlaceholders(`[IMAGE: query="x"]`)
	if len(got) != 1 || got[0].Slot != "misc" {
		t.Fatalf("got %+v, want slot misc", got)
	}
}

func TestEnsurePlaceholders_InsertsAfterHeading(t *testing.T) {
	md := "# 제목\n\n본문 첫 줄\n"
	ph := []model.ImagePlaceholder{{Query: "tennis warm up", Slot: "hook"}}

	out := EnsurePlaceholders(md, ph)
	if len(ExtractPlaceholders(out)) != 1 {
		t.Fatal("placeholder not inserted")
	}
	headIdx := strings.Index(out, "# 제목")
	phIdx := strings.Index(out, "[IMAGE:")
	bodyIdx := strings.Index(out, "본문 첫 줄")
	if !(headIdx < phIdx && phIdx < bodyIdx) {
		t.Errorf("insertion order wrong:\n%s", out)
	}
}

func TestEnsurePlaceholders_NoopWhenPresent(t *testing.T) {
	md := "# 제목\n\n" + `[IMAGE: query="existing"]` + "\n"
	out := EnsurePlaceholders(md, []model.ImagePlaceholder{{Query: "other"}})
	if out != md {
		t.Error("existing placeholders were modified")
	}
}

func TestInject_InOrderWithSurplusRemoved(t *testing.T) {
	md := "intro\n" +
		`[IMAGE: query="one"]` + "\n중간\n" +
		`[IMAGE: query="two"]` + "\n끝\n" +
		`[IMAGE: query="three"]` + "\n"
	downloaded := []model.DownloadedImage{
		{File: "images/img_01.jpg", URL: "https://u/1", License: "CC BY-SA 4.0"},
		{File: "images/img_02.png", URL: "https://u/2", License: ""},
	}

	out := Inject(md, downloaded)
	first := strings.Index(out, "![](images/img_01.jpg)")
	second := strings.Index(out, "![](images/img_02.png)")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("images not injected in order:\n%s", out)
	}
	if !strings.Contains(out, "출처: Wikimedia Commons · CC BY-SA 4.0") {
		t.Error("credit caption with license missing")
	}
	if strings.Contains(out, "[IMAGE:") {
		t.Error("surplus placeholder not removed")
	}
}

func TestInject_NoDownloadsLeavesTextUntouched(t *testing.T) {
	md := "intro\n" + `[IMAGE: query="one"]` + "\n"
	if out := Inject(md, nil); out != md {
		t.Error("text modified with zero downloads")
	}
}
