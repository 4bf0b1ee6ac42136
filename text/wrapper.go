package text

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extract turns a content node into plain text. Images and scripts are
// dropped, <br> becomes a line break and block elements end with a blank
// line. Lines are trimmed and blank runs collapsed.
func Extract(s *goquery.Selection) string {
	content := s.Clone()
	content.Find("img, script, style, noscript").Remove()
	content.Find("br").ReplaceWithHtml("\n")
	content.Find("p, div, h1, h2, h3, h4, li").Each(func(i int, p *goquery.Selection) {
		p.AppendHtml("\n\n")
	})
	return Normalize(content.Text())
}

// Normalize trims each line and collapses consecutive blank lines.
func Normalize(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\u00a0", " ")

	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
