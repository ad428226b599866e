package elevatebox

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"gopkg.in/yaml.v3"
)

// Island names understood by the server.
const (
	IslandOnboarding = "onboarding"
	IslandContact    = "contact"
	IslandLogin      = "login"
)

var knownIslands = map[string]bool{
	IslandOnboarding: true,
	IslandContact:    true,
	IslandLogin:      true,
}

// KnownIslands returns the island names a page may mount, sorted.
func KnownIslands() []string {
	names := make([]string, 0, len(knownIslands))
	for name := range knownIslands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Frontmatter represents the YAML frontmatter at the top of a markdown file.
type Frontmatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Layout      string `yaml:"layout"`    // "default" or "bare"
	NavOrder    int    `yaml:"nav_order"` // Position in the navigation, 0 = hidden
}

// IslandBlock is an ```island <name>``` fence found in a page.
type IslandBlock struct {
	Name  string
	Attrs map[string]string // key=value pairs after the name
	Line  int               // Line of the opening fence in the source file
}

// MountID is the element id of the island's mount point.
func (b *IslandBlock) MountID(index int) string {
	return fmt.Sprintf("island-%s-%d", b.Name, index)
}

// ParseMarkdown splits a page into frontmatter, island blocks and sanitized
// prose HTML. Each island fence is replaced in the HTML by its mount point.
// Island names are not checked here; see ParseFile.
func ParseMarkdown(content []byte) (*Frontmatter, []*IslandBlock, string, error) {
	fm, remaining, err := extractFrontmatter(content)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	md := newMarkdown()
	doc := md.Parser().Parse(text.NewReader(remaining))
	lineOffset := bytes.Count(content[:len(content)-len(remaining)], []byte("\n"))

	var (
		blocks []*IslandBlock
		fences []*ast.FencedCodeBlock
	)
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if block := parseIslandFence(fenced, remaining, lineOffset); block != nil {
			blocks = append(blocks, block)
			fences = append(fences, fenced)
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to walk AST: %w", err)
	}

	for i, fenced := range fences {
		mount := &islandMount{Name: blocks[i].Name, ID: blocks[i].MountID(i)}
		if parent := fenced.Parent(); parent != nil {
			parent.ReplaceChild(parent, fenced, mount)
		}
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, remaining, doc); err != nil {
		return nil, nil, "", fmt.Errorf("failed to render HTML: %w", err)
	}

	return fm, blocks, sanitizer.Sanitize(buf.String()), nil
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(mountRenderer{}, 500)),
		),
	)
}

// sanitizer keeps markdown output and the island mount points.
var sanitizer = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("div")
	p.AllowAttrs("data-island").Matching(bluemonday.Paragraph).OnElements("div")
	return p
}()

// extractFrontmatter extracts YAML frontmatter from the beginning of content.
func extractFrontmatter(content []byte) (*Frontmatter, []byte, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return &Frontmatter{Layout: "default"}, content, nil
	}

	endIdx := bytes.Index(content[4:], []byte("\n---"))
	if endIdx == -1 {
		return nil, nil, fmt.Errorf("unclosed frontmatter")
	}
	yamlContent := content[4 : 4+endIdx]
	remaining := content[4+endIdx+4:]
	remaining = bytes.TrimPrefix(remaining, []byte("\n"))

	var fm Frontmatter
	if err := yaml.Unmarshal(yamlContent, &fm); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if fm.Layout == "" {
		fm.Layout = "default"
	}
	return &fm, remaining, nil
}

// parseIslandFence returns the island described by a fence info string of
// the form "island <name> [key=value ...]", or nil for ordinary code.
func parseIslandFence(fenced *ast.FencedCodeBlock, source []byte, lineOffset int) *IslandBlock {
	if fenced.Info == nil {
		return nil
	}
	parts := strings.Fields(string(fenced.Info.Segment.Value(source)))
	if len(parts) == 0 || parts[0] != "island" {
		return nil
	}

	block := &IslandBlock{
		Attrs: make(map[string]string),
		Line:  lineOffset + bytes.Count(source[:fenced.Info.Segment.Start], []byte("\n")) + 1,
	}
	for _, part := range parts[1:] {
		if k, v, ok := strings.Cut(part, "="); ok {
			block.Attrs[k] = strings.Trim(v, `"'`)
			continue
		}
		if block.Name == "" {
			block.Name = part
		}
	}
	return block
}

// KindIslandMount is the AST node kind of an island mount point.
var KindIslandMount = ast.NewNodeKind("IslandMount")

type islandMount struct {
	ast.BaseBlock
	Name string
	ID   string
}

func (n *islandMount) Kind() ast.NodeKind { return KindIslandMount }

func (n *islandMount) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name}, nil)
}

type mountRenderer struct{}

func (mountRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindIslandMount, renderMount)
}

func renderMount(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	m := n.(*islandMount)
	fmt.Fprintf(w, "<div class=\"island\" id=\"%s\" data-island=\"%s\"></div>\n",
		html.EscapeString(m.ID), html.EscapeString(m.Name))
	return ast.WalkSkipChildren, nil
}
