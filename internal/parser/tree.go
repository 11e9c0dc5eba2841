package parser

// Node is one directive in a Tree. Nodes are owned by the tree; Parent and
// Children are resolved through it.
type Node struct {
	ID        ID
	StartLine int // 1-indexed, inclusive.
	EndLine   int // 1-indexed, inclusive.
	Directive Directive

	parent   ID
	children []ID
	tree     *Tree
}

// Kind returns the kind of the node's directive.
func (n *Node) Kind() Kind { return n.Directive.Kind() }

// Tree returns the tree that owns the node.
func (n *Node) Tree() *Tree { return n.tree }

// Parent returns the enclosing node, or nil for top-level nodes.
func (n *Node) Parent() *Node {
	if n.parent == None {
		return nil
	}
	return n.tree.Node(n.parent)
}

// Children returns the child nodes in source order.
func (n *Node) Children() []*Node {
	return n.tree.nodesOf(n.children)
}

// Commands returns the recipe lines of a rule in order, including those
// inside Automake conditionals the rule owns. It returns nil for other
// kinds.
func (n *Node) Commands() []*Node {
	if n.Kind() != KindRule {
		return nil
	}
	var out []*Node
	var collect func(ids []ID)
	collect = func(ids []ID) {
		for _, id := range ids {
			child := n.tree.Node(id)
			switch d := child.Directive.(type) {
			case *Command:
				out = append(out, child)
			case *Conditional:
				if d.Automake {
					collect(child.children)
				}
			}
		}
	}
	collect(n.children)
	return out
}

// Tree is the arena that owns every node parsed from one file.
type Tree struct {
	Filename string
	EndLine  int

	// Unclosed lists define and conditional nodes still open at end of
	// input, outermost first.
	Unclosed []ID

	nodes []Node
	top   []ID
}

// NewTree returns an empty tree for filename.
func NewTree(filename string) *Tree {
	return &Tree{Filename: filename}
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given id.
func (t *Tree) Node(id ID) *Node { return &t.nodes[id] }

// Top returns the top-level nodes in source order.
func (t *Tree) Top() []*Node { return t.nodesOf(t.top) }

// Walk visits every node in source order, parents before children.
// Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(*Node) bool) {
	var walk func(ids []ID)
	walk = func(ids []ID) {
		for _, id := range ids {
			n := t.Node(id)
			if fn(n) {
				walk(n.children)
			}
		}
	}
	walk(t.top)
}

// Append adds d as the last child of parent, or as a top-level node when
// parent is None, and returns its id. Ancestors grow to cover end.
func (t *Tree) Append(parent ID, d Directive, start, end int) ID {
	id := ID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		ID:        id,
		StartLine: start,
		EndLine:   end,
		Directive: d,
		parent:    parent,
		tree:      t,
	})
	if parent == None {
		t.top = append(t.top, id)
	} else {
		p := &t.nodes[parent]
		p.children = append(p.children, id)
	}
	t.extend(parent, end)
	return id
}

// SetEndLine moves the end line of id and grows its ancestors to match.
func (t *Tree) SetEndLine(id ID, end int) {
	n := &t.nodes[id]
	if end < n.StartLine {
		end = n.StartLine
	}
	n.EndLine = end
	t.extend(n.parent, end)
}

func (t *Tree) extend(id ID, end int) {
	if end > t.EndLine {
		t.EndLine = end
	}
	for id != None {
		n := &t.nodes[id]
		if n.EndLine >= end {
			return
		}
		n.EndLine = end
		id = n.parent
	}
}

func (t *Tree) nodesOf(ids []ID) []*Node {
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = t.Node(id)
	}
	return out
}
