package ast

import (
	"strconv"

	gast "github.com/yuin/goldmark/ast"
)

// A SearchHighlight struct represents one occurrence of the search keyword in rendered text.
type SearchHighlight struct {
	gast.BaseInline
	Index    int
	IsTarget bool
}

// Dump implements Node.Dump.
func (n *SearchHighlight) Dump(source []byte, level int) {
	m := map[string]string{
		"Index":  strconv.Itoa(n.Index),
		"Target": strconv.FormatBool(n.IsTarget),
	}
	gast.DumpHelper(n, source, level, m, nil)
}

// KindSearchHighlight is a NodeKind of the SearchHighlight node.
var KindSearchHighlight = gast.NewNodeKind("SearchHighlight")

// Kind implements Node.Kind.
func (n *SearchHighlight) Kind() gast.NodeKind {
	return KindSearchHighlight
}

// NewSearchHighlight returns a new SearchHighlight node.
func NewSearchHighlight(index int, target bool) *SearchHighlight {
	return &SearchHighlight{
		Index:    index,
		IsTarget: target,
	}
}
