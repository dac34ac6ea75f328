package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/viant/vecdb/writer"
)

// collectFiles returns the files under root matching any include pattern
// and no exclude pattern, as slash-separated paths relative to root.
func collectFiles(root string, includes, excludes []string) ([]string, error) {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && matchAny(excludes, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matchAny(includes, rel) && !matchAny(excludes, rel) {
			files = append(files, rel)
		}
		return nil
	})
	return files, err
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

// fileItems reads each file into an item keyed by its relative path.
// Empty files are skipped.
func fileItems(root string, files []string) ([]writer.Item, error) {
	items := make([]writer.Item, 0, len(files))
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		items = append(items, writer.Item{ID: rel, Text: string(data)})
	}
	return items, nil
}

// readJSONL parses one {"id":..., "text":...} object per line.
func readJSONL(r io.Reader) ([]writer.Item, error) {
	var items []writer.Item
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var item writer.Item
		if err := json.Unmarshal([]byte(text), &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, item)
	}
	return items, scanner.Err()
}

// batches splits items into chunks of at most size.
func batches(items []writer.Item, size int) [][]writer.Item {
	var out [][]writer.Item
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
