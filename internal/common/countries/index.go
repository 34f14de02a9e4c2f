// internal/common/countries/index.go
package countries

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

//go:embed countries.txt
var embeddedList string

var (
	defaultIndex *Index
	defaultOnce  sync.Once
)

// Index is an immutable, ordered list of country names.
type Index struct {
	entries []string
	folded  []string
}

// NewIndex copies entries; their order is kept for every lookup.
func NewIndex(entries []string) *Index {
	idx := &Index{
		entries: make([]string, len(entries)),
		folded:  make([]string, len(entries)),
	}
	copy(idx.entries, entries)
	for i, e := range entries {
		idx.folded[i] = strings.ToLower(e)
	}
	return idx
}

// Default returns the built-in list, parsed once per process.
func Default() *Index {
	defaultOnce.Do(func() {
		entries, _ := parse(strings.NewReader(embeddedList))
		defaultIndex = NewIndex(entries)
	})
	return defaultIndex
}

// LoadFile reads one country per line. Blank lines and lines starting with
// '#' are skipped.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open country list: %w", err)
	}
	defer f.Close()

	entries, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("read country list %s: %w", path, err)
	}
	return NewIndex(entries), nil
}

func parse(r io.Reader) ([]string, error) {
	var entries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	return entries, scanner.Err()
}

// Suggest returns every entry containing query, ignoring case, in list
// order. A blank query yields nothing rather than the whole list.
func (idx *Index) Suggest(query string) []string {
	if strings.TrimSpace(query) == "" {
		return []string{}
	}
	needle := strings.ToLower(query)
	out := []string{}
	for i, folded := range idx.folded {
		if strings.Contains(folded, needle) {
			out = append(out, idx.entries[i])
		}
	}
	return out
}

// All returns a copy of the list.
func (idx *Index) All() []string {
	out := make([]string, len(idx.entries))
	copy(out, idx.entries)
	return out
}

func (idx *Index) Len() int {
	return len(idx.entries)
}
