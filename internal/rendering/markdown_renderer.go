package rendering

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	vextension "github.com/patrickward/vesper/extension"
	"github.com/patrickward/vesper/internal/search"
)

// MarkdownRenderer renders workspace markdown files to sanitized HTML for previews
type MarkdownRenderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

type RenderedContent struct {
	Title      string         // The front matter title, or the first level one heading.
	HTML       template.HTML  // The rendered HTML content.
	Headings   []string       // Text of the level two headings, in order.
	Highlights int            // Number of search keyword occurrences marked in the HTML.
	Metadata   map[string]any // Additional metadata extracted from front matter.
}

type RenderOptions struct {
	SearchQuery string // Keyword to highlight, ignoring case
	TargetIndex int    // Occurrence (from 1) to mark as the scroll target
}

// NewMarkdownRenderer creates a new MarkdownRenderer instance.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		md:        newMarkdown(),
		sanitizer: createSanitizerPolicy(),
	}
}

func newMarkdown(extra ...goldmark.Extender) goldmark.Markdown {
	extensions := []goldmark.Extender{
		extension.GFM,
		extension.Typographer,
		extension.DefinitionList,
		meta.Meta,
	}

	return goldmark.New(
		goldmark.WithExtensions(append(extensions, extra...)...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(), // Allow raw HTML, but sanitize later
		),
	)
}

// Render renders the given Markdown content.
func (mr *MarkdownRenderer) Render(content string) RenderedContent {
	return mr.RenderWithOptions(content, RenderOptions{})
}

// RenderWithOptions renders the given Markdown content, highlighting the search query when set.
func (mr *MarkdownRenderer) RenderWithOptions(content string, opts RenderOptions) RenderedContent {
	md := mr.md
	if opts.SearchQuery != "" {
		md = newMarkdown(vextension.NewSearchHighlight(opts.SearchQuery, opts.TargetIndex))
	}

	source := []byte(content)
	ctx := parser.NewContext()
	doc := md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))
	metadata := meta.Get(ctx)

	title, headings := collectHeadings(doc, source)
	if metaTitle, ok := metadata["title"].(string); ok && strings.TrimSpace(metaTitle) != "" {
		title = metaTitle
	}

	rendered := RenderedContent{
		Title:      title,
		Headings:   headings,
		Highlights: vextension.HighlightCount(ctx),
		Metadata:   metadata,
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, source, doc); err != nil {
		rendered.HTML = mr.renderError(content, err)
		return rendered
	}

	rendered.HTML = template.HTML(mr.sanitizer.Sanitize(buf.String()))
	return rendered
}

// collectHeadings returns the first level one heading and every level two heading.
func collectHeadings(doc gast.Node, source []byte) (string, []string) {
	var title string
	var headings []string

	_ = gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		heading, ok := n.(*gast.Heading)
		if !entering || !ok {
			return gast.WalkContinue, nil
		}

		label := strings.TrimSpace(string(nodeText(heading, source)))
		switch {
		case heading.Level == 1 && title == "":
			title = label
		case heading.Level == 2:
			headings = append(headings, label)
		}
		return gast.WalkSkipChildren, nil
	})

	return title, headings
}

// nodeText concatenates the text segments below n.
func nodeText(n gast.Node, source []byte) []byte {
	var buf bytes.Buffer
	_ = gast.Walk(n, func(c gast.Node, entering bool) (gast.WalkStatus, error) {
		if t, ok := c.(*gast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return gast.WalkContinue, nil
	})
	return buf.Bytes()
}

// renderError renders an error message for the given content.
func (mr *MarkdownRenderer) renderError(content string, err error) template.HTML {
	return template.HTML(fmt.Sprintf("<div class=\"callout danger\">%s</div><pre>%s</pre>",
		template.HTMLEscapeString(err.Error()), template.HTMLEscapeString(content)))
}

// HighlightLine renders one search match line as HTML, wrapping each matched range in a
// mark element. Ranges must be sorted and lie on character boundaries of the line.
func HighlightLine(match search.SearchMatch) template.HTML {
	var b strings.Builder
	pos := 0
	for _, r := range match.MatchIndices {
		if r.Start < pos || r.End > len(match.Line) {
			continue
		}
		b.WriteString(template.HTMLEscapeString(match.Line[pos:r.Start]))
		b.WriteString(`<mark class="search-highlight">`)
		b.WriteString(template.HTMLEscapeString(match.Line[r.Start:r.End]))
		b.WriteString("</mark>")
		pos = r.End
	}
	b.WriteString(template.HTMLEscapeString(match.Line[pos:]))
	return template.HTML(b.String())
}

// createSanitizerPolicy creates a new sanitizer policy for HTML rendering.
func createSanitizerPolicy() *bluemonday.Policy {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowAttrs("class", "id").OnElements("span", "div", "code", "pre", "p", "mark", "h1", "h2", "h3", "h4", "h5", "h6")

	// GFM task list checkboxes
	sanitizer.AllowAttrs("type", "checked", "disabled").OnElements("input")
	return sanitizer
}
