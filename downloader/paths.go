package downloader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"book-scraper/model"
	"book-scraper/utils"
)

// SectionNumber is the 1-based section a chapter index falls into.
func SectionNumber(index, sectionSize int) int {
	return index/sectionSize + 1
}

// StartIndex rewinds a resume offset to the first chapter of its section.
func StartIndex(offset, sectionSize int) int {
	if offset <= 0 {
		return 0
	}
	return offset / sectionSize * sectionSize
}

func BookDir(outputDir, title string) string {
	title = utils.FormatFilename(title)
	return filepath.Join(outputDir, title)
}

func MetadataPath(outputDir, title string) string {
	title = utils.FormatFilename(title)
	return filepath.Join(outputDir, title, title+"-meta.json")
}

func SectionPath(outputDir, title string, section int) string {
	title = utils.FormatFilename(title)
	return filepath.Join(outputDir, title, title+"-"+strconv.Itoa(section)+".txt")
}

// WriteMetadata writes meta as indented JSON, keeping non-ASCII and HTML
// characters literal, and returns the file path.
func WriteMetadata(outputDir string, meta *model.BookMetadata) (string, error) {
	path := MetadataPath(outputDir, meta.Title)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}
	return path, nil
}

func ReadMetadata(path string) (*model.BookMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	meta := &model.BookMetadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if err := validate(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func validate(meta *model.BookMetadata) error {
	if meta.Length != len(meta.Chapters) {
		return model.Structuralf("metadata %s: length %d but %d chapters", meta.Title, meta.Length, len(meta.Chapters))
	}
	for i, ch := range meta.Chapters {
		if ch.Index != i {
			return model.Structuralf("metadata %s: chapter %d has index %d", meta.Title, i, ch.Index)
		}
	}
	return nil
}
