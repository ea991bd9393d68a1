package tree

import "bestsellers/scraper/internal/domain"

// ChildrenKind tags the state of a node's children.
type ChildrenKind int

const (
	// KindUnbuilt is the zero value, held only until the builder reaches the node.
	KindUnbuilt ChildrenKind = iota
	// KindExpanded holds an ordered, possibly empty, list of child nodes.
	KindExpanded
	// KindCycleStop marks a node whose menu links back to its parent.
	KindCycleStop
	// KindDepthLimit marks a node at the maximum configured depth.
	KindDepthLimit
	// KindFailed marks a node whose subcategories could not be discovered.
	KindFailed
)

func (k ChildrenKind) String() string {
	switch k {
	case KindUnbuilt:
		return "unbuilt"
	case KindExpanded:
		return "expanded"
	case KindCycleStop:
		return "cycle-stop"
	case KindDepthLimit:
		return "depth-limit"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Children is the tagged children value of a CategoryNode.
type Children struct {
	kind  ChildrenKind
	nodes []*CategoryNode
	err   error
}

func Expanded(nodes []*CategoryNode) Children {
	if nodes == nil {
		nodes = []*CategoryNode{}
	}
	return Children{kind: KindExpanded, nodes: nodes}
}

func CycleStop() Children {
	return Children{kind: KindCycleStop}
}

func DepthLimit() Children {
	return Children{kind: KindDepthLimit}
}

func Failed(err error) Children {
	return Children{kind: KindFailed, err: err}
}

func (c Children) Kind() ChildrenKind {
	return c.kind
}

// Nodes returns the child nodes; nil unless Kind is KindExpanded.
func (c Children) Nodes() []*CategoryNode {
	return c.nodes
}

// Err returns the discovery error of a KindFailed value.
func (c Children) Err() error {
	return c.err
}

// Descend reports whether a traversal should visit the child nodes.
func (c Children) Descend() bool {
	return c.kind == KindExpanded
}

// CategoryNode is one category page in a best-seller tree.
type CategoryNode struct {
	url      string
	parent   *CategoryNode
	children Children
	depth    int
}

// NewRoot creates the root node of a tree for a seed URL.
func NewRoot(seedURL string) *CategoryNode {
	return &CategoryNode{url: domain.CanonicalURL(seedURL)}
}

func newChild(parent *CategoryNode, canonicalURL string) *CategoryNode {
	return &CategoryNode{
		url:    canonicalURL,
		parent: parent,
		depth:  parent.depth + 1,
	}
}

func (n *CategoryNode) URL() string {
	return n.url
}

// Parent returns the owning node, nil for the root.
func (n *CategoryNode) Parent() *CategoryNode {
	return n.parent
}

func (n *CategoryNode) Children() Children {
	return n.children
}

func (n *CategoryNode) Depth() int {
	return n.depth
}

// setChildren assigns the children exactly once.
func (n *CategoryNode) setChildren(c Children) {
	if n.children.kind != KindUnbuilt {
		panic("tree: children of " + n.url + " assigned twice")
	}
	n.children = c
}

// Walk visits root and its descendants in pre-order, descending only into
// expanded children. It stops early when fn returns false for a node's subtree.
func Walk(root *CategoryNode, fn func(node *CategoryNode) bool) {
	if root == nil {
		return
	}
	if !fn(root) {
		return
	}
	if !root.children.Descend() {
		return
	}
	for _, child := range root.children.nodes {
		Walk(child, fn)
	}
}

// Size returns the number of nodes reachable by Walk.
func Size(root *CategoryNode) int {
	count := 0
	Walk(root, func(*CategoryNode) bool {
		count++
		return true
	})
	return count
}
