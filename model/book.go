package model

// Target is one line of the target list: a book address and the chapter
// offset to resume from.
type Target struct {
	Address string
	Offset  int
}

type ChapterRef struct {
	Index int    `json:"index"`
	Url   string `json:"url"`
	Title string `json:"title"`
}

// BookMetadata is the durable record of what a book contains. Chapters are
// indexed 0..Length-1 in document order.
type BookMetadata struct {
	Title       string       `json:"title"`
	Url         string       `json:"book_url"`
	Author      string       `json:"author"`
	Description string       `json:"description"`
	Length      int          `json:"length"`
	Chapters    []ChapterRef `json:"chapters"`
}

// BookInfo is what a parser extracts from a book page, before titles are
// sanitized and indices assigned.
type BookInfo struct {
	Title       string
	Author      string
	Description string
	Chapters    []ChapterLink
}

type ChapterLink struct {
	Url   string
	Title string
}

type Chapter struct {
	Title string
	Body  string
	// Next is the address of the chapter's following page, empty on the last page.
	Next string
}

// Page is raw markup returned by a Fetcher. Url is where the fetcher ended
// up, which may differ from the requested address after redirects.
type Page struct {
	Url  string
	Html string
}
