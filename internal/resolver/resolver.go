// Package resolver maps a cursor position in PHP source to the template path
// named by the string literal under the cursor, when that literal sits inside
// a call to the configured target function.
package resolver

import (
	"strings"

	"laravells/internal/config"
	"laravells/internal/grammar"
	"laravells/internal/parser"
)

const (
	// CallExpressionKind is the node kind of a PHP function call.
	CallExpressionKind = "function_call_expression"
	calleeField        = "function"
	pathSeparator      = "/"
)

// Outcome tells why a resolution did or did not produce a path.
type Outcome int

const (
	Resolved Outcome = iota
	NoNode           // point outside the tree
	NoCall           // no enclosing call expression
	NoCallee         // call without a function child
	Mismatch         // callee is not the target symbol
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case NoNode:
		return "no_node"
	case NoCall:
		return "no_call"
	case NoCallee:
		return "no_callee"
	case Mismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// EnclosingCall walks up from n and returns the first ancestor that is a call
// expression. With nested calls the innermost call wins, whether or not n is
// one of its direct arguments.
func EnclosingCall(n parser.Node) (parser.Node, bool) {
	for p, ok := n.Parent(); ok; p, ok = p.Parent() {
		if p.Kind() == CallExpressionKind {
			return p, true
		}
	}
	return parser.Node{}, false
}

// CalleeName returns the source text of the call's function child.
func CalleeName(call parser.Node) (string, bool) {
	fn, ok := call.ChildByFieldName(calleeField)
	if !ok {
		return "", false
	}
	return fn.Text(), true
}

// Matches reports whether a callee name is the configured target.
func Matches(name, target string) bool {
	return name == target
}

// Synthesize turns a dotted template name into a path relative to the
// project: "some.view" becomes "resources/views/some/view.blade.php" with the
// default config. Segments are not validated.
func Synthesize(literal string, cfg config.Config) string {
	joined := strings.Join(strings.Split(literal, cfg.Delimiter), pathSeparator)

	ext := strings.TrimPrefix(cfg.Extension, ".")
	if ext != "" {
		joined += "." + ext
	}

	root := strings.Trim(cfg.RootDir, pathSeparator)
	if root == "" {
		return joined
	}
	return root + pathSeparator + joined
}

// Explain resolves pt against an already parsed tree and reports the
// outcome. The path is empty unless the outcome is Resolved.
func Explain(tree *parser.Tree, pt parser.Point, cfg config.Config) (string, Outcome) {
	node, ok := parser.NodeAt(tree, pt)
	if !ok {
		return "", NoNode
	}

	call, ok := EnclosingCall(node)
	if !ok {
		return "", NoCall
	}

	name, ok := CalleeName(call)
	if !ok {
		return "", NoCallee
	}
	if !Matches(name, cfg.TargetSymbol) {
		return "", Mismatch
	}

	// The text comes from the node under the cursor, not from a fixed
	// argument position of the call.
	return Synthesize(node.Text(), cfg), Resolved
}

// Resolve parses source and returns the template path referenced at pt, or
// false when there is nothing to navigate to.
func Resolve(source []byte, pt parser.Point, cfg config.Config, g *grammar.Grammar) (string, bool) {
	path, outcome := Explain(parser.Parse(source, g), pt, cfg)
	return path, outcome == Resolved
}
