package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryFor(t *testing.T) {
	custom := map[string]Layout{"MySite": {
		Title: "h1", Author: ".by", Description: ".blurb",
		ChapterList: "ol.toc", ChapterEntry: "li",
		ChapterTitle: "h2", ChapterBody: "article",
	}}
	r, err := NewRegistry("novelbin", map[string]string{
		"www.bilinovel.com": "bilinovel",
		"My.Site":           "mysite",
	}, custom)
	require.NoError(t, err)

	tests := []struct {
		address string
		want    string
	}{
		{"https://www.bilinovel.com/novel/1.html", "bilinovel"},
		{"https://my.site/book/2", "mysite"},
		{"https://novelbin.example/book/3", "novelbin"},
		{"//cdn.example/book", "novelbin"},
	}
	for _, tt := range tests {
		p, err := r.For(tt.address)
		require.NoError(t, err, tt.address)
		assert.Equal(t, tt.want, p.Name(), tt.address)
	}

	assert.Equal(t, []string{"bilinovel", "mysite", "novelbin"}, r.Names())
}

func TestRegistryErrors(t *testing.T) {
	_, err := NewRegistry("unknown", nil, nil)
	assert.Error(t, err)

	_, err = NewRegistry("novelbin", map[string]string{"a.com": "missing"}, nil)
	assert.Error(t, err)

	_, err = NewRegistry("novelbin", nil, map[string]Layout{"bad": {Title: "h1"}})
	assert.Error(t, err)

	r, err := NewRegistry("", nil, nil)
	require.NoError(t, err)
	_, err = r.For("http://[::1")
	assert.Error(t, err)
}
