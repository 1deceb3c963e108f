package urls

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// FileParser reads a URL list: one URL per line, optionally followed by a
// tab and a title. Blank lines and # comments are ignored.
type FileParser struct{}

func NewFileParser() *FileParser {
	return &FileParser{}
}

// Fetch implements URLsFetcher with a local file path as the source.
// Repeated URLs are returned once, first occurrence wins.
func (p *FileParser) Fetch(filePath string) ([]URL, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open url list: %w", err)
	}
	defer f.Close()

	var out []URL
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		entry, ok := parseLine(scanner.Text())
		if !ok || seen[entry.Location] {
			continue
		}
		if !strings.Contains(entry.Location, "://") {
			return nil, fmt.Errorf("line %d: %q is not an absolute URL", lineNum, entry.Location)
		}
		seen[entry.Location] = true
		out = append(out, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no URLs found in %s", filePath)
	}
	return out, nil
}

func parseLine(line string) (URL, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return URL{}, false
	}
	loc, title, _ := strings.Cut(line, "\t")
	// spreadsheet exports leave trailing commas
	loc = strings.TrimRight(strings.TrimSpace(loc), ", ")
	if loc == "" {
		return URL{}, false
	}
	return URL{Location: loc, Title: strings.TrimSpace(title)}, true
}
