package targets

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-scraper/model"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"https://example.com/book/1",
		"https://example.com/book/2,650",
		"",
		"   ",
		" https://example.com/book/3 , 12 ",
		"https://example.com/book/4,1,2",
		"https://example.com/book/5,abc",
		"https://example.com/book/6,-3",
		",5",
		"https://example.com/book/7,0",
	}, "\n")

	var logBuf bytes.Buffer
	got, err := Parse(strings.NewReader(input), zerolog.New(&logBuf))
	require.NoError(t, err)

	assert.Equal(t, []model.Target{
		{Address: "https://example.com/book/1", Offset: 0},
		{Address: "https://example.com/book/2", Offset: 650},
		{Address: "https://example.com/book/3", Offset: 12},
		{Address: "https://example.com/book/7", Offset: 0},
	}, got)

	// one warning per rejected line
	assert.Equal(t, 4, strings.Count(logBuf.String(), "skipping target line"))
	assert.Contains(t, logBuf.String(), `"line":6`)
}

func TestParseEmpty(t *testing.T) {
	got, err := Parse(strings.NewReader(""), zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseCRLF(t *testing.T) {
	got, err := Parse(strings.NewReader("http://a/1,3\r\nhttp://a/2\r\n"), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []model.Target{{Address: "http://a/1", Offset: 3}, {Address: "http://a/2"}}, got)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte("http://example/book/1,500\n"), 0644))

	got, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []model.Target{{Address: "http://example/book/1", Offset: 500}}, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"), zerolog.Nop())
	require.Error(t, err)

	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
