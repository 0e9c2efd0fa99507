package extension

import (
	"fmt"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/patrickward/vesper/extension/ast"
	"github.com/patrickward/vesper/internal/search"
)

// HighlightCountKey holds the number of highlights added to a document
var HighlightCountKey = parser.NewContextKey()

// HighlightCount returns the number of keyword occurrences highlighted while parsing.
func HighlightCount(pc parser.Context) int {
	if count, ok := pc.Get(HighlightCountKey).(int); ok {
		return count
	}
	return 0
}

// searchHighlightTransformer splits text nodes around keyword occurrences and wraps each
// occurrence in a SearchHighlight node.
type searchHighlightTransformer struct {
	matcher     *search.Matcher
	targetIndex int
}

func (t *searchHighlightTransformer) Transform(doc *gast.Document, reader text.Reader, pc parser.Context) {
	if t.matcher.Empty() {
		return
	}

	// Collect first: the tree is rewritten below.
	var texts []*gast.Text
	_ = gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		if _, ok := n.(*gast.CodeSpan); ok {
			return gast.WalkSkipChildren, nil
		}
		if tn, ok := n.(*gast.Text); ok && !tn.IsRaw() {
			texts = append(texts, tn)
		}
		return gast.WalkContinue, nil
	})

	source := reader.Source()
	index := 0
	for _, tn := range texts {
		seg := tn.Segment
		ranges := t.matcher.FindAll(string(seg.Value(source)))
		if len(ranges) == 0 {
			continue
		}

		parent := tn.Parent()
		pos := seg.Start
		for _, r := range ranges {
			start, end := seg.Start+r.Start, seg.Start+r.End
			if start > pos {
				parent.InsertBefore(parent, tn, gast.NewTextSegment(text.NewSegment(pos, start)))
			}

			index++
			mark := ast.NewSearchHighlight(index, index == t.targetIndex)
			mark.AppendChild(mark, gast.NewTextSegment(text.NewSegment(start, end)))
			parent.InsertBefore(parent, tn, mark)
			pos = end
		}

		// The remainder keeps the original node so its line break flags survive.
		tn.Segment = text.NewSegment(pos, seg.Stop)
		if pos == seg.Stop && !tn.SoftLineBreak() && !tn.HardLineBreak() {
			parent.RemoveChild(parent, tn)
		}
	}

	pc.Set(HighlightCountKey, index)
}

// SearchHighlightHTMLRenderer renders SearchHighlight nodes as mark elements.
type SearchHighlightHTMLRenderer struct {
	html.Config
}

// NewSearchHighlightHTMLRenderer returns a new SearchHighlightHTMLRenderer.
func NewSearchHighlightHTMLRenderer(opts ...html.Option) renderer.NodeRenderer {
	r := &SearchHighlightHTMLRenderer{
		Config: html.NewConfig(),
	}
	for _, opt := range opts {
		opt.SetHTMLOption(&r.Config)
	}
	return r
}

// RegisterFuncs implements renderer.NodeRenderer.RegisterFuncs.
func (r *SearchHighlightHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindSearchHighlight, r.renderSearchHighlight)
}

func (r *SearchHighlightHTMLRenderer) renderSearchHighlight(
	w util.BufWriter, source []byte, node gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</mark>")
		return gast.WalkContinue, nil
	}
	n := node.(*ast.SearchHighlight)

	class := "search-highlight"
	if n.IsTarget {
		class += " search-target"
	}
	_, _ = fmt.Fprintf(w, `<mark id="search-match-%d" class="%s">`, n.Index, class)

	return gast.WalkContinue, nil
}

type searchHighlight struct {
	keyword     string
	targetIndex int
}

// NewSearchHighlight returns an extension that highlights every case-insensitive
// occurrence of keyword in the document text. The occurrence numbered targetIndex
// (counting from 1) is additionally marked as the scroll target.
func NewSearchHighlight(keyword string, targetIndex int) goldmark.Extender {
	return &searchHighlight{keyword: keyword, targetIndex: targetIndex}
}

func (e *searchHighlight) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&searchHighlightTransformer{
			matcher:     search.NewMatcher(e.keyword),
			targetIndex: e.targetIndex,
		}, 999),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(NewSearchHighlightHTMLRenderer(), 500),
	))
}
