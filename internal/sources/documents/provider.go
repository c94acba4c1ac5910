package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoDocuments is returned by Init when the directory holds no documents.
// The agent treats this as degraded capability, not a startup failure.
var ErrNoDocuments = errors.New("no document files found")

// Provider searches a fixed set of preloaded text documents.
// Every document is held fully in memory, keyed by filename.
type Provider struct {
	dir    string
	logger *slog.Logger
	docs   map[string][]section // filename -> sections
	order  []string             // filenames in load order, for stable results
}

// SearchResult is one relevant excerpt, ranked by score
type SearchResult struct {
	Document string
	Snippet  string
	Score    int
}

type section struct {
	heading string
	body    string
}

// New creates a documents provider scanning the given directory
func New(dir string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{dir: dir, logger: logger}
}

// Init loads every .txt and .md file under the directory into memory.
// Zero documents degrades the provider without aborting the agent.
func (p *Provider) Init(_ context.Context) error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return fmt.Errorf("failed to read documents directory %s: %w", p.dir, err)
	}

	p.docs = make(map[string][]section)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(p.dir, name))
		if err != nil {
			p.logger.Warn("skipping unreadable document", "file", name, "error", err)
			continue
		}
		p.docs[name] = splitSections(string(data))
		p.order = append(p.order, name)
	}

	if len(p.order) == 0 {
		return fmt.Errorf("%w in %s", ErrNoDocuments, p.dir)
	}

	p.logger.Info("documents provider ready", "documents", len(p.order))
	return nil
}

// DocumentNames returns the loaded filenames in load order
func (p *Provider) DocumentNames() []string {
	return p.order
}

// isHeading reports whether a line is a section heading marker:
// a markdown heading or a short all-caps line (chapter titles).
func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	if len(trimmed) >= 4 && len(trimmed) <= 80 {
		hasLetter := false
		for _, r := range trimmed {
			if r >= 'a' && r <= 'z' {
				return false
			}
			if r >= 'A' && r <= 'Z' {
				hasLetter = true
			}
		}
		return hasLetter
	}
	return false
}

// splitSections cuts a document at heading markers. Text before the first
// heading becomes a section with an empty heading.
func splitSections(text string) []section {
	lines := strings.Split(text, "\n")

	var sections []section
	current := section{}
	var body []string

	flush := func() {
		current.body = strings.TrimSpace(strings.Join(body, "\n"))
		if current.heading != "" || current.body != "" {
			sections = append(sections, current)
		}
		body = nil
	}

	for _, line := range lines {
		if isHeading(line) {
			flush()
			current = section{heading: strings.TrimSpace(line)}
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}
