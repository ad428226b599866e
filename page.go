// Package elevatebox turns markdown content pages into servable pages with
// mount points for the interactive islands (onboarding wizard, contact form).
package elevatebox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Page is a parsed content page.
type Page struct {
	ID          string // Route-independent identifier, the file name without extension
	Title       string
	Description string
	Layout      string
	NavOrder    int
	SourceFile  string // Absolute path to the source .md file
	HTML        string // Sanitized prose with island mount points
	Islands     []*IslandBlock
}

// HasIsland reports whether the page mounts the named island.
func (p *Page) HasIsland(name string) bool {
	for _, b := range p.Islands {
		if b.Name == name {
			return true
		}
	}
	return false
}

// ParseFile reads and parses a page. Unknown or missing island names are
// reported as a *ParseError pointing at the fence.
func ParseFile(path string) (*Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	page, err := parse(content, absPath)
	if err != nil {
		return nil, err
	}
	page.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if page.Title == "" {
		page.Title = titleFromID(page.ID)
	}
	return page, nil
}

// ParseString parses page content that has no backing file.
func ParseString(id, content string) (*Page, error) {
	page, err := parse([]byte(content), "")
	if err != nil {
		return nil, err
	}
	page.ID = id
	if page.Title == "" {
		page.Title = titleFromID(id)
	}
	return page, nil
}

func parse(content []byte, file string) (*Page, error) {
	fm, blocks, html, err := ParseMarkdown(content)
	if err != nil {
		return nil, NewParseError(file, 1, fmt.Sprintf("failed to parse markdown: %v", err))
	}

	for _, b := range blocks {
		if b.Name == "" {
			return nil, NewParseError(file, b.Line, "island fence without a name").
				WithHint(fmt.Sprintf("write ```island <name>``` with one of: %s", strings.Join(KnownIslands(), ", ")))
		}
		if !knownIslands[b.Name] {
			return nil, NewParseError(file, b.Line, fmt.Sprintf("unknown island %q", b.Name)).
				WithColumn(len("```island ") + 1).
				WithHint(fmt.Sprintf("available islands: %s", strings.Join(KnownIslands(), ", ")))
		}
	}

	return &Page{
		Title:       fm.Title,
		Description: fm.Description,
		Layout:      fm.Layout,
		NavOrder:    fm.NavOrder,
		SourceFile:  file,
		HTML:        html,
		Islands:     blocks,
	}, nil
}

// titleFromID turns "get-started" into "Get Started".
func titleFromID(id string) string {
	if id == "index" || id == "" {
		return "Home"
	}
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
