package targets

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"book-scraper/model"
)

const Delimiter = ","

// Load reads a target list file. An unreadable file is a ConfigError;
// malformed lines are logged and skipped.
func Load(path string, log zerolog.Logger) ([]model.Target, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &model.ConfigError{Source: path, Err: fmt.Errorf("failed to open target list: %w", err)}
	}
	defer file.Close()

	list, err := Parse(file, log)
	if err != nil {
		return nil, &model.ConfigError{Source: path, Err: err}
	}
	return list, nil
}

// Parse reads one target per line: "address" or "address,offset".
func Parse(r io.Reader, log zerolog.Logger) ([]model.Target, error) {
	list := make([]model.Target, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		target, err := parseLine(line)
		if err != nil {
			log.Warn().Int("line", lineNo).Str("content", line).Err(err).Msg("skipping target line")
			continue
		}
		list = append(list, target)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return list, nil
}

func parseLine(line string) (model.Target, error) {
	fields := strings.Split(line, Delimiter)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[0] == "" {
		return model.Target{}, fmt.Errorf("empty address")
	}

	switch len(fields) {
	case 1:
		return model.Target{Address: fields[0]}, nil
	case 2:
		offset, err := strconv.Atoi(fields[1])
		if err != nil {
			return model.Target{}, fmt.Errorf("invalid offset %q: %v", fields[1], err)
		}
		if offset < 0 {
			return model.Target{}, fmt.Errorf("negative offset %d", offset)
		}
		return model.Target{Address: fields[0], Offset: offset}, nil
	default:
		return model.Target{}, fmt.Errorf("expected 1 or 2 fields, got %d", len(fields))
	}
}
