package parser

// NodeAt returns the deepest node, named or anonymous, whose span contains pt.
// A child contains pt when start <= pt < end, so a point on a boundary belongs
// to the node that starts there. NodeAt returns false when pt lies outside
// the root's span, including a point at its end.
func NodeAt(t *Tree, pt Point) (Node, bool) {
	root := t.Root()
	if pt.Less(root.StartPoint()) || !pt.Less(root.EndPoint()) {
		return Node{}, false
	}

	n := root
	for descended := true; descended; {
		descended = false
		for _, c := range n.Children() {
			if !pt.Less(c.EndPoint()) {
				continue
			}
			if pt.Less(c.StartPoint()) {
				break
			}
			n = c
			descended = true
			break
		}
	}
	return n, true
}
