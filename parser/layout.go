package parser

import "fmt"

// Layout describes where a site keeps the fields of a book page and a
// chapter page. All values are CSS selectors.
type Layout struct {
	Title       string `mapstructure:"title"`
	Author      string `mapstructure:"author"`
	Description string `mapstructure:"description"`
	// ChapterList selects the containers; ChapterEntry selects their direct
	// children. Several containers are read in document order.
	ChapterList  string `mapstructure:"chapter_list"`
	ChapterEntry string `mapstructure:"chapter_entry"`
	ChapterTitle string `mapstructure:"chapter_title"`
	ChapterBody  string `mapstructure:"chapter_body"`
	// Strip lists nodes removed from the chapter body before extracting text.
	Strip []string `mapstructure:"strip"`
	// NextPage is optional. When it matches on a chapter page the chapter
	// continues on another page: the element's href if it has one, otherwise
	// the <chapter>_<n>.html page after the current one.
	NextPage string `mapstructure:"next_page"`
}

// NovelBin is the layout the downloader was first written against.
var NovelBin = Layout{
	Title:        "span.title",
	Author:       "span.author a",
	Description:  "div.description",
	ChapterList:  "ul#chapter-list",
	ChapterEntry: "li",
	ChapterTitle: "div.name",
	ChapterBody:  "div.content",
}

// Bilinovel reads a volume page (/novel/<id>/vol_<n>.html). Chapters are
// split over /novel/<id>/<chapter>_<n>.html pages.
var Bilinovel = Layout{
	Title:        ".book-title",
	Author:       ".authorname>a",
	Description:  ".book-summary>content",
	ChapterList:  "ul:has(li.chapter-li.jsChapter)",
	ChapterEntry: "li.chapter-li.jsChapter",
	ChapterTitle: "#atitle",
	ChapterBody:  "#acontent",
	Strip:        []string{".cgo", "center", ".google-auto-placed"},
	NextPage:     `a[onclick*="url_next"]:contains("下一頁")`,
}

var builtin = map[string]Layout{
	"novelbin":  NovelBin,
	"bilinovel": Bilinovel,
}

func (l Layout) Validate() error {
	required := []struct{ key, value string }{
		{"title", l.Title},
		{"author", l.Author},
		{"description", l.Description},
		{"chapter_list", l.ChapterList},
		{"chapter_entry", l.ChapterEntry},
		{"chapter_title", l.ChapterTitle},
		{"chapter_body", l.ChapterBody},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("layout selector %s is empty", r.key)
		}
	}
	return nil
}
