// Package images resolves [IMAGE: ...] placeholder directives to licensed,
// deduplicated downloaded images plus credit metadata.
package images

import (
	"regexp"
	"strings"

	"autoblogger/internal/model"
)

// placeholderRe matches one directive per line. The outline generator emits
// directives as list items, so an optional "- " prefix is accepted.
var placeholderRe = regexp.MustCompile(`(?m)^(?:-\s*)?\[IMAGE:\s*([^\]]+)\]\s*$`)

var attrRe = regexp.MustCompile(`(\w+)="([^"]*)"`)

// ExtractPlaceholders parses all image directives from the markdown, in
// document order. Directives without a query attribute are skipped.
func ExtractPlaceholders(md string) []model.ImagePlaceholder {
	var out []model.ImagePlaceholder
	for _, m := range placeholderRe.FindAllStringSubmatch(md, -1) {
		attrs := map[string]string{}
		for _, a := range attrRe.FindAllStringSubmatch(m[1], -1) {
			attrs[a[1]] = a[2]
		}
		if attrs["query"] == "" {
			continue
		}
		slot := attrs["slot"]
		if slot == "" {
			slot = "misc"
		}
		out = append(out, model.ImagePlaceholder{
			Query:   attrs["query"],
			Alt:     attrs["alt"],
			Caption: attrs["caption"],
			Slot:    slot,
		})
	}
	return out
}

// HasPlaceholder reports whether the markdown contains any image directive.
func HasPlaceholder(md string) bool {
	return placeholderRe.MatchString(md)
}

// EnsurePlaceholders inserts the given directives right after the H1 when the
// markdown has none of its own, so a draft always carries the outline's
// image slots forward.
func EnsurePlaceholders(md string, placeholders []model.ImagePlaceholder) string {
	if HasPlaceholder(md) || len(placeholders) == 0 {
		return md
	}

	lines := strings.Split(md, "\n")
	insertAt := 0
	for i, l := range lines {
		if strings.HasPrefix(l, "# ") {
			insertAt = i + 2
			break
		}
	}
	if insertAt > len(lines) {
		insertAt = len(lines)
	}

	var ph []string
	for _, p := range placeholders {
		ph = append(ph, `[IMAGE: query="`+p.Query+`" alt="`+p.Alt+`" caption="`+p.Caption+`" slot="`+p.Slot+`"]`)
	}
	ph = append(ph, "")

	out := make([]string, 0, len(lines)+len(ph))
	out = append(out, lines[:insertAt]...)
	out = append(out, ph...)
	out = append(out, lines[insertAt:]...)
	return strings.Join(out, "\n")
}

// Inject replaces each placeholder occurrence, in original order, with an
// image reference plus its rendered credit caption. Placeholders beyond the
// downloaded count resolve to an empty string.
func Inject(md string, downloaded []model.DownloadedImage) string {
	if len(downloaded) == 0 {
		return md
	}
	idx := 0
	return placeholderRe.ReplaceAllStringFunc(md, func(string) string {
		if idx >= len(downloaded) {
			return ""
		}
		d := downloaded[idx]
		idx++
		credit := "출처: Wikimedia Commons"
		if d.License != "" {
			credit += " · " + d.License
		}
		return "![](" + d.File + ")\n\n<div style=\"text-align:right;font-size:12px;color:#6b7280;margin-top:4px\">" + credit + "</div>"
	})
}
