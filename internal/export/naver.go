// Package export converts final content into a publish-ready document plus
// derived metadata.
package export

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Package is the export renderer output, persisted under the artifact's
// export location with fixed names.
type Package struct {
	// FullDocument is the standalone HTML page (naver_full.html).
	FullDocument string
	// BodyFragment is the bare HTML body (naver_body.html).
	BodyFragment string
	// TagLine is the space-joined hashtag line (hashtags.txt).
	TagLine string
}

// Fixed export file names.
const (
	FileFull     = "naver_full.html"
	FileBody     = "naver_body.html"
	FileHashtags = "hashtags.txt"
)

var md = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkhtml.WithUnsafe(), // bodies carry our own credit <div> blocks
	),
)

var (
	altAttrRe    = regexp.MustCompile(`\salt="[^"]*"`)
	figcaptionRe = regexp.MustCompile(`(?s)<figcaption.*?</figcaption>`)
	tagPunctRe   = regexp.MustCompile(`[\[\]#(){}.,!?]`)
)

// defaultTags is always appended to the derived hashtag set.
var defaultTags = []string{"광화문", "종로", "통증의학과", "정형외과"}

// Render converts the final markdown into the Naver package.
func Render(markdown, title string) (Package, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return Package{}, fmt.Errorf("render markdown: %w", err)
	}

	body := buf.String()
	// Naver's editor duplicates alt text and captions below pasted images;
	// strip ours so only the credit block remains.
	body = altAttrRe.ReplaceAllString(body, ` alt=""`)
	body = figcaptionRe.ReplaceAllString(body, "")

	credit := `<p style="margin-top:16px;color:#666;font-size:12px">출처: Wikimedia Commons · &lt;License&gt;</p>`
	body = body + "\n" + credit

	return Package{
		FullDocument: wrapDocument(body, title),
		BodyFragment: body,
		TagLine:      hashtags(title),
	}, nil
}

// hashtags derives up to 20 tags from the title words plus fixed defaults.
func hashtags(title string) string {
	seen := map[string]struct{}{}
	var tags []string
	add := func(t string) {
		t = strings.TrimSpace(tagPunctRe.ReplaceAllString(t, ""))
		if len([]rune(t)) < 2 {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	for _, w := range strings.Fields(title) {
		add(w)
	}
	for _, t := range defaultTags {
		add(t)
	}
	if len(tags) > 20 {
		tags = tags[:20]
	}
	for i, t := range tags {
		if !strings.HasPrefix(t, "#") {
			tags[i] = "#" + t
		}
	}
	return strings.Join(tags, " ")
}

func wrapDocument(body, title string) string {
	return `<!doctype html>
<html lang="ko">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>` + html.EscapeString(title) + `</title>
  <style>
    body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Apple SD Gothic Neo,Noto Sans KR,sans-serif;line-height:1.65;color:#111;}
    h1{font-size:28px;margin:0 0 12px;font-weight:800;}
    h2{font-size:20px;margin:22px 0 10px;font-weight:800;}
    h3{font-size:16px;margin:18px 0 8px;font-weight:800;}
    ul,ol{padding-left:22px;}
    blockquote{border-left:3px solid #ddd;padding-left:12px;color:#555;margin:12px 0;}
    hr{margin:18px 0;}
    code{background:#f3f3f3;padding:2px 5px;border-radius:6px;}
    pre{background:#f3f3f3;padding:12px;border-radius:10px;overflow:auto;}
    a{color:inherit;text-decoration:underline;}
  </style>
</head>
<body>
` + body + `
</body>
</html>`
}
