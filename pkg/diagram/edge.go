package diagram

import (
	"github.com/google/uuid"
)

// DefaultWaypointRatio places the vertical routing segment halfway between
// the endpoints.
const DefaultWaypointRatio = 0.5

// endpoint is one side of an edge: either bound to a node, optionally with
// a pinned local-coordinate offset, or a free scene point while the edge is
// still being drawn.
type endpoint struct {
	node   *Node
	offset *Point // node-local connection pin, nil for auto
	free   Point  // scene point, meaningful while node == nil
}

// Edge connects two nodes with an orthogonally routed path. While the end
// is still free (during a drag gesture) the edge renders as a straight
// line.
type Edge struct {
	ID            uuid.UUID
	Title         string
	WaypointRatio float64

	start endpoint
	end   endpoint
}

// NewPendingEdge starts an edge anchored on from, with the loose end at a
// free scene point.
func NewPendingEdge(from *Node, free Point) *Edge {
	return &Edge{
		ID:            uuid.New(),
		WaypointRatio: DefaultWaypointRatio,
		start:         endpoint{node: from},
		end:           endpoint{free: free},
	}
}

// NewEdge creates a fully connected edge.
func NewEdge(from, to *Node) *Edge {
	return &Edge{
		ID:            uuid.New(),
		WaypointRatio: DefaultWaypointRatio,
		start:         endpoint{node: from},
		end:           endpoint{node: to},
	}
}

// StartNode returns the start endpoint's node, nil while unbound.
func (e *Edge) StartNode() *Node { return e.start.node }

// EndNode returns the end endpoint's node, nil while unbound.
func (e *Edge) EndNode() *Node { return e.end.node }

// Connected reports whether both endpoints are bound to nodes.
func (e *Edge) Connected() bool {
	return e.start.node != nil && e.end.node != nil
}

// OtherNode returns the endpoint opposite n, or nil if n is not an
// endpoint.
func (e *Edge) OtherNode(n *Node) *Node {
	switch n {
	case e.start.node:
		return e.end.node
	case e.end.node:
		return e.start.node
	}
	return nil
}

// StartOffset returns a copy of the start pin, nil when auto-computed.
func (e *Edge) StartOffset() *Point { return copyPoint(e.start.offset) }

// EndOffset returns a copy of the end pin, nil when auto-computed.
func (e *Edge) EndOffset() *Point { return copyPoint(e.end.offset) }

// SetStartOffset pins or unpins the start connection point.
func (e *Edge) SetStartOffset(p *Point) { e.start.offset = copyPoint(p) }

// SetEndOffset pins or unpins the end connection point.
func (e *Edge) SetEndOffset(p *Point) { e.end.offset = copyPoint(p) }

// MoveFreeEnd relocates the loose end during edge creation. Ignored once
// both ends are bound.
func (e *Edge) MoveFreeEnd(p Point) {
	if e.end.node == nil {
		e.end.free = p
	}
}

// bindEnd attaches the loose end to a node.
func (e *Edge) bindEnd(n *Node) {
	e.end = endpoint{node: n}
}

func copyPoint(p *Point) *Point {
	if p == nil {
		return nil
	}
	q := *p
	return &q
}

// anchor returns the point the opposite endpoint aims at: the pin when one
// is set, the node center otherwise, or the free point while unbound.
func (ep endpoint) anchor() Point {
	if ep.node == nil {
		return ep.free
	}
	if ep.offset != nil {
		return ep.node.ScenePos().Add(*ep.offset)
	}
	return ep.node.SceneRect().Center()
}

// connectionPoint resolves the scene point where this endpoint meets its
// node border, aiming at target when unpinned.
func (ep endpoint) connectionPoint(target Point) Point {
	if ep.node == nil {
		return ep.free
	}
	if ep.offset != nil {
		return ep.node.ScenePos().Add(*ep.offset)
	}
	return BorderIntersection(ep.node.SceneRect(), target)
}

// StartPoint returns the realized start connection point.
func (e *Edge) StartPoint() Point {
	return e.start.connectionPoint(e.end.anchor())
}

// EndPoint returns the realized end connection point.
func (e *Edge) EndPoint() Point {
	return e.end.connectionPoint(e.start.anchor())
}
