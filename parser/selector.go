package parser

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"book-scraper/model"
	"book-scraper/text"
)

// Selector implements model.Parser for any site described by a Layout.
type Selector struct {
	name   string
	layout Layout
}

func NewSelector(name string, layout Layout) (*Selector, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("layout %s: %w", name, err)
	}
	return &Selector{name: name, layout: layout}, nil
}

func (p *Selector) Name() string { return p.name }

func (p *Selector) ParseBook(page *model.Page) (*model.BookInfo, error) {
	doc, err := document(page)
	if err != nil {
		return nil, err
	}
	l := p.layout

	title, err := required(doc, "title", l.Title)
	if err != nil {
		return nil, err
	}
	author, err := required(doc, "author", l.Author)
	if err != nil {
		return nil, err
	}
	description, err := required(doc, "description", l.Description)
	if err != nil {
		return nil, err
	}

	list := doc.Find(l.ChapterList)
	if list.Length() == 0 {
		return nil, model.Transient(&model.MissingFieldError{Field: "chapter list", Selector: l.ChapterList})
	}

	base, err := url.Parse(page.Url)
	if err != nil {
		return nil, model.Structuralf("invalid page url %q: %v", page.Url, err)
	}

	info := &model.BookInfo{
		Title:       strings.TrimSpace(title.Text()),
		Author:      strings.TrimSpace(author.Text()),
		Description: strings.TrimSpace(description.Text()),
		Chapters:    make([]model.ChapterLink, 0),
	}

	list.ChildrenFiltered(l.ChapterEntry).EachWithBreak(func(i int, s *goquery.Selection) bool {
		a := s.Find("a[href]").First()
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		ref, perr := url.Parse(href)
		if perr != nil {
			err = model.Structuralf("invalid chapter link %q: %v", href, perr)
			return false
		}
		info.Chapters = append(info.Chapters, model.ChapterLink{
			Url:   base.ResolveReference(ref).String(),
			Title: strings.TrimSpace(a.Text()),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (p *Selector) ParseChapter(page *model.Page) (*model.Chapter, error) {
	doc, err := document(page)
	if err != nil {
		return nil, err
	}
	l := p.layout

	title, err := required(doc, "chapter title", l.ChapterTitle)
	if err != nil {
		return nil, err
	}
	body, err := required(doc, "chapter body", l.ChapterBody)
	if err != nil {
		return nil, err
	}

	body = body.Clone()
	for _, sel := range l.Strip {
		body.Find(sel).Remove()
	}

	chapter := &model.Chapter{
		Title: strings.TrimSpace(title.Text()),
		Body:  text.Extract(body),
	}
	if l.NextPage == "" {
		return chapter, nil
	}
	next := doc.Find(l.NextPage).First()
	if next.Length() == 0 {
		return chapter, nil
	}

	base, err := url.Parse(page.Url)
	if err != nil {
		return nil, model.Structuralf("invalid page url %q: %v", page.Url, err)
	}
	href := strings.TrimSpace(next.AttrOr("href", ""))
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		chapter.Next = nextPageURL(base)
		return chapter, nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil, model.Structuralf("invalid next page link %q: %v", href, err)
	}
	chapter.Next = base.ResolveReference(ref).String()
	return chapter, nil
}

// nextPageURL numbers pages as /novel/1/10.html, /novel/1/10_2.html,
// /novel/1/10_3.html and so on.
func nextPageURL(base *url.URL) string {
	u := *base
	ext := path.Ext(u.Path)
	stem := strings.TrimSuffix(u.Path, ext)
	n := 1
	if i := strings.LastIndex(stem, "_"); i >= 0 {
		if p, err := strconv.Atoi(stem[i+1:]); err == nil {
			stem, n = stem[:i], p
		}
	}
	u.Path = fmt.Sprintf("%s_%d%s", stem, n+1, ext)
	u.RawPath = ""
	return u.String()
}

func document(page *model.Page) (*goquery.Document, error) {
	if page == nil {
		return nil, model.Structuralf("no page")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Html))
	if err != nil {
		return nil, model.Structuralf("failed to parse html: %v", err)
	}
	return doc, nil
}

func required(doc *goquery.Document, field, selector string) (*goquery.Selection, error) {
	s := doc.Find(selector).First()
	if s.Length() == 0 {
		return nil, model.Transient(&model.MissingFieldError{Field: field, Selector: selector})
	}
	return s, nil
}
