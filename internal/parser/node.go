package parser

import "fmt"

const errorKind = "ERROR"

// Node is a lightweight handle on a node owned by a Tree. The zero Node is
// not valid; handles never outlive their tree's usefulness but hold no
// resources of their own.
type Node struct {
	tree *Tree
	id   int32
}

func (n Node) data() *nodeData {
	return &n.tree.nodes[n.id]
}

// IsZero reports whether n is the zero Node.
func (n Node) IsZero() bool {
	return n.tree == nil
}

// Kind returns the grammar symbol name, e.g. "function_call_expression".
func (n Node) Kind() string {
	return n.data().kind
}

// Field returns the role this node plays in its parent, if any.
func (n Node) Field() string {
	return n.data().field
}

// IsNamed reports whether n is a named grammar symbol rather than a literal
// token such as "(".
func (n Node) IsNamed() bool {
	return n.data().named
}

// IsMissing reports whether n was inserted by error recovery and spans no
// source.
func (n Node) IsMissing() bool {
	return n.data().missing
}

// IsError reports whether n is an ERROR node wrapping unparseable source.
func (n Node) IsError() bool {
	return n.data().kind == errorKind
}

func (n Node) StartByte() uint32 {
	return n.data().startByte
}

func (n Node) EndByte() uint32 {
	return n.data().endByte
}

func (n Node) StartPoint() Point {
	return n.data().startPoint
}

func (n Node) EndPoint() Point {
	return n.data().endPoint
}

// Parent returns the parent node, or false for the root.
func (n Node) Parent() (Node, bool) {
	p := n.data().parent
	if p == noNode {
		return Node{}, false
	}
	return Node{tree: n.tree, id: p}, true
}

// Children returns the ordered children of n.
func (n Node) Children() []Node {
	ids := n.data().children
	children := make([]Node, len(ids))
	for i, id := range ids {
		children[i] = Node{tree: n.tree, id: id}
	}
	return children
}

// ChildByFieldName returns the first child holding the given role.
func (n Node) ChildByFieldName(field string) (Node, bool) {
	for _, id := range n.data().children {
		if n.tree.nodes[id].field == field {
			return Node{tree: n.tree, id: id}, true
		}
	}
	return Node{}, false
}

// Text returns the source bytes spanned by n.
func (n Node) Text() string {
	d := n.data()
	src := n.tree.source
	if int(d.endByte) > len(src) || d.startByte > d.endByte {
		return ""
	}
	return string(src[d.startByte:d.endByte])
}

func (n Node) String() string {
	if n.IsZero() {
		return "<nil>"
	}
	return fmt.Sprintf("(%s %s-%s)", n.Kind(), n.StartPoint(), n.EndPoint())
}
