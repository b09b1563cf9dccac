package parser

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

const noNode int32 = -1

// Point is a zero-based row/column location. Column counts bytes.
type Point struct {
	Row    uint32
	Column uint32
}

// Less reports whether p comes before o.
func (p Point) Less(o Point) bool {
	return p.Row < o.Row || (p.Row == o.Row && p.Column < o.Column)
}

func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Column)
}

type nodeData struct {
	kind       string
	field      string
	named      bool
	missing    bool
	startByte  uint32
	endByte    uint32
	startPoint Point
	endPoint   Point
	parent     int32
	children   []int32
}

// Tree owns every node of a single parse together with the source bytes the
// nodes were parsed from. A Tree is immutable once built.
type Tree struct {
	source []byte
	nodes  []nodeData
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return Node{tree: t, id: 0}
}

// Source returns the parsed bytes.
func (t *Tree) Source() []byte {
	return t.source
}

// NodeCount returns the number of nodes, named and anonymous.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// HasError reports whether error recovery produced ERROR or missing nodes.
func (t *Tree) HasError() bool {
	for _, n := range t.nodes {
		if n.kind == errorKind || n.missing {
			return true
		}
	}
	return false
}

func (t *Tree) add(n *sitter.Node, field string, parent int32) int32 {
	id := int32(len(t.nodes))
	t.nodes = append(t.nodes, nodeData{
		kind:       n.Type(),
		field:      field,
		named:      n.IsNamed(),
		missing:    n.IsMissing(),
		startByte:  n.StartByte(),
		endByte:    n.EndByte(),
		startPoint: Point{Row: n.StartPoint().Row, Column: n.StartPoint().Column},
		endPoint:   Point{Row: n.EndPoint().Row, Column: n.EndPoint().Column},
		parent:     parent,
	})
	if parent != noNode {
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}
	return id
}

// newTree copies the tree-sitter tree rooted at root into an arena. The
// tree-sitter tree may be closed afterwards.
func newTree(root *sitter.Node, source []byte) *Tree {
	t := &Tree{source: source}

	c := sitter.NewTreeCursor(root)
	defer c.Close()

	stack := []int32{t.add(c.CurrentNode(), "", noNode)}
	for {
		if c.GoToFirstChild() {
			id := t.add(c.CurrentNode(), c.CurrentFieldName(), stack[len(stack)-1])
			stack = append(stack, id)
			continue
		}
		for {
			if len(stack) == 1 {
				return t
			}
			stack = stack[:len(stack)-1]
			if c.GoToNextSibling() {
				id := t.add(c.CurrentNode(), c.CurrentFieldName(), stack[len(stack)-1])
				stack = append(stack, id)
				break
			}
			if !c.GoToParent() {
				return t
			}
		}
	}
}

// errorTree is used when tree-sitter returns no tree at all: a single ERROR
// node spanning the whole source.
func errorTree(source []byte) *Tree {
	var end Point
	for _, b := range source {
		if b == '\n' {
			end.Row++
			end.Column = 0
			continue
		}
		end.Column++
	}
	return &Tree{
		source: source,
		nodes: []nodeData{{
			kind:     errorKind,
			named:    true,
			endByte:  uint32(len(source)),
			endPoint: end,
			parent:   noNode,
		}},
	}
}
