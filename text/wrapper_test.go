package text

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	html := `<div class="content">
		<p>First line.</p>
		<p>Second<br>line</p>
		<img src="x.png">
		<script>var a = 1;</script>
		<p>   </p>
		<p>Third</p>
	</div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	got := Extract(doc.Find("div.content"))
	assert.Equal(t, "First line.\n\nSecond\nline\n\nThird", got)
	assert.NotContains(t, got, "var a")
}

func TestExtractLeavesSourceUntouched(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div id="c"><p>a</p><img src="y"></div>`))
	require.NoError(t, err)

	Extract(doc.Find("#c"))
	assert.Equal(t, 1, doc.Find("#c img").Length())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trims lines", "  a  \n  b ", "a\nb"},
		{"collapses blanks", "a\n\n\n\nb", "a\n\nb"},
		{"leading blanks", "\n\n a", "a"},
		{"crlf and nbsp", "a\u00a0\r\n\r\n\r\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
