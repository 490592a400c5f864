package diagram

import (
	"github.com/google/uuid"
)

// NodeType classifies a node. Untyped nodes are plain boxes.
type NodeType string

const (
	TypeNone         NodeType = ""
	TypeStateMachine NodeType = "StateMachine"
	TypeState        NodeType = "State"
)

// Layout constants shared by the live scene and the exporters.
const (
	MinNodeWidth     = 200.0
	MinNodeHeight    = 100.0
	TitleBarHeight   = 30.0
	NodePadding      = 10.0
	NodeBorderWidth  = 3.0
	ResizeHandleSize = 10.0
)

// Node is a titled rectangle in the scene graph. Position is expressed in
// the parent's coordinate space, or scene space for root nodes. A node that
// hosts children becomes a container; containers grow to fit their children
// and never shrink back.
type Node struct {
	ID          uuid.UUID
	Title       string
	Type        NodeType
	Pos         Point // top-left, parent-local
	Width       float64
	Height      float64
	IsContainer bool
	IsInitial   bool
	Z           float64
	Selected    bool

	parent   *Node
	children []*Node
	edges    []*Edge

	checkingParent bool
	resizing       bool
}

// NewNode creates an unattached node with clamped dimensions.
func NewNode(title string, pos Point, w, h float64) *Node {
	if w < MinNodeWidth {
		w = MinNodeWidth
	}
	if h < MinNodeHeight {
		h = MinNodeHeight
	}
	return &Node{
		ID:     uuid.New(),
		Title:  title,
		Pos:    pos,
		Width:  w,
		Height: h,
	}
}

// Parent returns the containing node, or nil for root nodes.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the directly contained nodes.
func (n *Node) Children() []*Node { return n.children }

// Edges returns the edges touching this node.
func (n *Node) Edges() []*Edge { return n.edges }

// ScenePos returns the node's top-left corner in scene coordinates.
func (n *Node) ScenePos() Point {
	p := n.Pos
	for anc := n.parent; anc != nil; anc = anc.parent {
		p = p.Add(anc.Pos)
	}
	return p
}

// SceneRect returns the node's bounding rectangle in scene coordinates.
func (n *Node) SceneRect() Rect {
	p := n.ScenePos()
	return Rect{p.X, p.Y, n.Width, n.Height}
}

// LocalRect returns the node's rectangle in its own coordinate space.
func (n *Node) LocalRect() Rect {
	return Rect{0, 0, n.Width, n.Height}
}

// IsAncestorOf reports whether n appears on other's parent chain.
func (n *Node) IsAncestorOf(other *Node) bool {
	for cur := other.parent; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// setType switches the node's type. The title is rewritten to the type's
// default and the initial flag is cleared when leaving State. Undo recording
// is the caller's responsibility.
func (n *Node) setType(t NodeType) {
	n.Type = t
	switch t {
	case TypeStateMachine:
		n.Title = "StateMachine"
	case TypeState:
		n.Title = "State"
	}
	if t != TypeState {
		n.IsInitial = false
	}
}

// setInitial marks a State node as the initial state. Ignored for other
// types.
func (n *Node) setInitial(v bool) {
	if n.Type != TypeState {
		return
	}
	n.IsInitial = v
}

// resize clamps the new dimensions to the minimums. The top-left corner
// stays fixed.
func (n *Node) resize(w, h float64) {
	if w < MinNodeWidth {
		w = MinNodeWidth
	}
	if h < MinNodeHeight {
		h = MinNodeHeight
	}
	n.Width = w
	n.Height = h
}

// contentOrigin returns the top-left of the child area in local coordinates.
func (n *Node) contentOrigin() Point {
	return Point{NodePadding, TitleBarHeight + NodePadding}
}

// defaultChildPos places a new child below the lowest existing child, or at
// the top of the content area for the first one.
func (n *Node) defaultChildPos() Point {
	x := NodePadding + 10
	y := TitleBarHeight + NodePadding + 10
	for _, c := range n.children {
		if bottom := c.Pos.Y + c.Height; bottom+10 > y {
			y = bottom + 10
		}
	}
	return Point{x, y}
}

// fitToChildren grows the node so every child fits with padding. Neither
// dimension ever shrinks; removing a child leaves the size alone.
func (n *Node) fitToChildren() {
	if len(n.children) == 0 {
		return
	}
	maxRight, maxBottom := 0.0, 0.0
	for _, c := range n.children {
		if r := c.Pos.X + c.Width; r > maxRight {
			maxRight = r
		}
		if b := c.Pos.Y + c.Height; b > maxBottom {
			maxBottom = b
		}
	}
	if w := maxRight + NodePadding + 10; w > n.Width {
		n.Width = w
	}
	if h := maxBottom + NodePadding + 10; h > n.Height {
		n.Height = h
	}
}

// attachChild links child under n, becoming a container on first use.
// The child's position must already be in n's coordinate space.
func (n *Node) attachChild(child *Node) {
	n.IsContainer = true
	child.parent = n
	n.children = append(n.children, child)
	n.fitToChildren()
}

// detachChild unlinks child from n. The parent keeps its size.
func (n *Node) detachChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

func (n *Node) addEdge(e *Edge) {
	for _, existing := range n.edges {
		if existing == e {
			return
		}
	}
	n.edges = append(n.edges, e)
}

func (n *Node) removeEdge(e *Edge) {
	for i, existing := range n.edges {
		if existing == e {
			n.edges = append(n.edges[:i], n.edges[i+1:]...)
			return
		}
	}
}

// ResizeHandleRect returns the bottom-right grab square in scene
// coordinates.
func (n *Node) ResizeHandleRect() Rect {
	p := n.ScenePos()
	return Rect{
		p.X + n.Width - ResizeHandleSize,
		p.Y + n.Height - ResizeHandleSize,
		ResizeHandleSize,
		ResizeHandleSize,
	}
}
