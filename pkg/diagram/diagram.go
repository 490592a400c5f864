// Package diagram implements the scene graph for hierarchical state-machine
// models: nodes nested in containers, orthogonally routed edges, automatic
// z-ordering, containment-driven reparenting, and a bounded undo/redo log.
package diagram

import (
	"fmt"

	"github.com/google/uuid"
)

// SelectedZ draws the selected node above all size-based ordering.
const SelectedZ = 1000.0

// Diagram owns the full node/edge graph for one document, together with
// its undo/redo history and the per-document default-title counters. All
// mutation goes through Diagram methods so the history stays consistent.
type Diagram struct {
	nodes []*Node
	edges []*Edge

	history *History
	nodeSeq int
	edgeSeq int
}

// New creates an empty diagram.
func New() *Diagram {
	d := &Diagram{}
	d.history = newHistory(d)
	return d
}

// Nodes returns every node, containers and children alike.
func (d *Diagram) Nodes() []*Node { return d.nodes }

// RootNodes returns the nodes with no parent.
func (d *Diagram) RootNodes() []*Node {
	var roots []*Node
	for _, n := range d.nodes {
		if n.parent == nil {
			roots = append(roots, n)
		}
	}
	return roots
}

// Edges returns every connected edge.
func (d *Diagram) Edges() []*Edge { return d.edges }

// History returns the undo/redo log.
func (d *Diagram) History() *History { return d.history }

// FindNode returns the node with the given id, or nil.
func (d *Diagram) FindNode(id uuid.UUID) *Node {
	for _, n := range d.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (d *Diagram) hasNode(n *Node) bool {
	for _, x := range d.nodes {
		if x == n {
			return true
		}
	}
	return false
}

func (d *Diagram) hasEdge(e *Edge) bool {
	for _, x := range d.edges {
		if x == e {
			return true
		}
	}
	return false
}

// AddNode creates a root node at pos and records it. An empty title gets a
// sequential default.
func (d *Diagram) AddNode(title string, pos Point) *Node {
	if title == "" {
		d.nodeSeq++
		title = fmt.Sprintf("Node %d", d.nodeSeq)
	}
	n := NewNode(title, pos, MinNodeWidth, MinNodeHeight)
	d.nodes = append(d.nodes, n)
	d.history.record(actionNodeCreate, n, nil, nodeCreateData{parent: nil, pos: pos})
	return n
}

// AddChildNode creates a node inside parent. A nil position places it below
// the lowest existing child.
func (d *Diagram) AddChildNode(parent *Node, pos *Point) *Node {
	d.nodeSeq++
	n := NewNode(fmt.Sprintf("Node %d", d.nodeSeq), Point{}, MinNodeWidth, MinNodeHeight)
	if pos != nil {
		n.Pos = *pos
	} else {
		n.Pos = parent.defaultChildPos()
	}
	parent.attachChild(n)
	d.nodes = append(d.nodes, n)
	d.history.record(actionNodeCreate, n, nil, nodeCreateData{parent: parent, pos: n.Pos})
	return n
}

// insertNode registers an already-built node without recording, used by
// deserialization and undo replay.
func (d *Diagram) insertNode(n *Node) {
	d.nodes = append(d.nodes, n)
}

// InsertNode registers a node without touching the history. Deserialization
// uses this; interactive edits go through AddNode.
func (d *Diagram) InsertNode(n *Node) {
	d.insertNode(n)
}

// InsertEdge registers a connected edge without touching the history.
func (d *Diagram) InsertEdge(e *Edge) {
	d.insertEdge(e)
}

// Attach places n under parent with its current parent-local position,
// without recording. Deserialization uses this to rebuild nesting.
func (d *Diagram) Attach(n *Node, parent *Node) {
	parent.attachChild(n)
}

// insertEdge registers an already-built edge without recording.
func (d *Diagram) insertEdge(e *Edge) {
	d.edges = append(d.edges, e)
	if e.start.node != nil {
		e.start.node.addEdge(e)
	}
	if e.end.node != nil {
		e.end.node.addEdge(e)
	}
}

// DeleteNode removes n, its descendants, and every edge touching any of
// them. Only the top-level deletion is recorded; the snapshot carries the
// connected edges so undo can restore them.
func (d *Diagram) DeleteNode(n *Node) {
	if !d.hasNode(n) {
		return
	}

	snap := snapshotNode(n)
	var edgeSnaps []edgeSnapshot
	for _, e := range d.edgesTouching(n) {
		edgeSnaps = append(edgeSnaps, snapshotEdge(e))
	}

	d.deleteNodeCascade(n)
	d.history.record(actionNodeDelete, n, nil, nodeDeleteData{snap: snap, edges: edgeSnaps})
}

// edgesTouching collects edges with an endpoint on n or any descendant.
func (d *Diagram) edgesTouching(n *Node) []*Edge {
	var out []*Edge
	for _, e := range d.edges {
		s, t := e.start.node, e.end.node
		if s == n || t == n ||
			(s != nil && n.IsAncestorOf(s)) ||
			(t != nil && n.IsAncestorOf(t)) {
			out = append(out, e)
		}
	}
	return out
}

// deleteNodeCascade removes n and its subtree without recording. Edges go
// first so no edge is left with a stale endpoint.
func (d *Diagram) deleteNodeCascade(n *Node) {
	for _, e := range d.edgesTouching(n) {
		d.removeEdge(e)
	}
	for len(n.children) > 0 {
		d.deleteNodeCascade(n.children[0])
	}
	if n.parent != nil {
		n.parent.detachChild(n)
	}
	for i, x := range d.nodes {
		if x == n {
			d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)
			break
		}
	}
}

func (d *Diagram) removeEdge(e *Edge) {
	if e.start.node != nil {
		e.start.node.removeEdge(e)
	}
	if e.end.node != nil {
		e.end.node.removeEdge(e)
	}
	for i, x := range d.edges {
		if x == e {
			d.edges = append(d.edges[:i], d.edges[i+1:]...)
			return
		}
	}
}

// StartEdge begins an edge drag from a node toward a free scene point. The
// pending edge is not part of the graph until CompleteEdge binds it.
func (d *Diagram) StartEdge(from *Node, free Point) *Edge {
	return NewPendingEdge(from, free)
}

// CompleteEdge drops the pending edge onto target. Dropping on empty space
// or back onto the origin node discards the edge silently and returns nil.
func (d *Diagram) CompleteEdge(e *Edge, target *Node) *Edge {
	if target == nil || target == e.start.node {
		return nil
	}
	e.bindEnd(target)
	d.edgeSeq++
	if e.Title == "" {
		e.Title = fmt.Sprintf("t%d", d.edgeSeq)
	}
	d.insertEdge(e)
	d.history.record(actionEdgeCreate, nil, e,
		edgeCreateData{from: e.start.node, to: e.end.node})
	return e
}

// Connect creates and records a connected edge in one step.
func (d *Diagram) Connect(from, to *Node) *Edge {
	if from == nil || to == nil || from == to {
		return nil
	}
	e := d.StartEdge(from, to.SceneRect().Center())
	return d.CompleteEdge(e, to)
}

// DeleteEdge removes an edge and records a snapshot for undo.
func (d *Diagram) DeleteEdge(e *Edge) {
	if !d.hasEdge(e) {
		return
	}
	snap := snapshotEdge(e)
	d.removeEdge(e)
	d.history.record(actionEdgeDelete, nil, e, edgeDeleteData{snap: snap})
}

// MoveNode commits a drag gesture: the position at press time against the
// final one. Identical positions record nothing.
func (d *Diagram) MoveNode(n *Node, oldPos, newPos Point) {
	if oldPos == newPos {
		return
	}
	n.Pos = newPos
	d.history.record(actionNodeMove, n, nil, nodeMoveData{old: oldPos, new: newPos})
	d.UpdateZOrder(n)
	d.CheckContainment(n)
}

// BeginResize suppresses z-order and containment churn for the duration of
// the gesture.
func (d *Diagram) BeginResize(n *Node) {
	n.resizing = true
}

// ResizeLive applies intermediate dimensions during the gesture, clamped
// but unrecorded.
func (d *Diagram) ResizeLive(n *Node, w, h float64) {
	n.resize(w, h)
}

// EndResize commits the gesture, comparing against the rect captured at
// press time. No-op resizes record nothing.
func (d *Diagram) EndResize(n *Node, oldW, oldH float64) {
	n.resizing = false
	if n.Width == oldW && n.Height == oldH {
		return
	}
	d.history.record(actionNodeResize, n, nil,
		nodeResizeData{oldW: oldW, oldH: oldH, newW: n.Width, newH: n.Height})
	d.UpdateZOrder(n)
}

// SetNodeTitle retitles a node.
func (d *Diagram) SetNodeTitle(n *Node, title string) {
	if n.Title == title {
		return
	}
	old := n.Title
	n.Title = title
	d.history.record(actionNodeTitleChange, n, nil, nodeTitleData{old: old, new: title})
}

// SetNodeType switches the node type, rewriting the title to the type's
// default.
func (d *Diagram) SetNodeType(n *Node, t NodeType) {
	if n.Type == t {
		return
	}
	data := nodeTypeData{oldType: n.Type, newType: t, oldTitle: n.Title, oldInitial: n.IsInitial}
	n.setType(t)
	d.history.record(actionNodeTypeChange, n, nil, data)
}

// SetNodeInitial toggles the initial-state marker on a State node.
func (d *Diagram) SetNodeInitial(n *Node, v bool) {
	if n.Type != TypeState || n.IsInitial == v {
		return
	}
	n.setInitial(v)
	d.history.record(actionNodeInitialChange, n, nil, nodeInitialData{old: !v, new: v})
}

// SetEdgeTitle retitles an edge.
func (d *Diagram) SetEdgeTitle(e *Edge, title string) {
	if e.Title == title {
		return
	}
	old := e.Title
	e.Title = title
	d.history.record(actionEdgeTitleChange, nil, e, edgeTitleData{old: old, new: title})
}

// SetEdgeWaypoint commits a waypoint drag, recording the ratio at press
// time against the final one. The ratio is clamped to [0,1] so a nudge
// past either end cannot produce an unloadable document.
func (d *Diagram) SetEdgeWaypoint(e *Edge, oldRatio, newRatio float64) {
	if newRatio < 0 {
		newRatio = 0
	} else if newRatio > 1 {
		newRatio = 1
	}
	if oldRatio == newRatio {
		return
	}
	e.WaypointRatio = newRatio
	d.history.record(actionEdgeWaypointChange, nil, e,
		edgeWaypointData{old: oldRatio, new: newRatio})
}

// SetEdgeOffsets pins or unpins the connection points, recording both ends.
func (d *Diagram) SetEdgeOffsets(e *Edge, start, end *Point) {
	data := edgeConnData{
		oldStart: copyPoint(e.start.offset),
		oldEnd:   copyPoint(e.end.offset),
		newStart: copyPoint(start),
		newEnd:   copyPoint(end),
	}
	e.SetStartOffset(start)
	e.SetEndOffset(end)
	d.history.record(actionEdgeConnectionChange, nil, e, data)
}

// SetSelected toggles the transient selection override on the z-order.
func (d *Diagram) SetSelected(n *Node, sel bool) {
	n.Selected = sel
	if sel {
		n.Z = SelectedZ
		return
	}
	n.Z = 0
	d.UpdateZOrder(n)
}

// NodeAt returns the topmost node whose scene rect contains p, preferring
// higher z and then smaller area, or nil.
func (d *Diagram) NodeAt(p Point) *Node {
	var best *Node
	for _, n := range d.nodes {
		if !n.SceneRect().ContainsPoint(p) {
			continue
		}
		if best == nil || n.Z > best.Z ||
			(n.Z == best.Z && n.LocalRect().Area() < best.LocalRect().Area()) {
			best = n
		}
	}
	return best
}

// SmallestNodeAt returns the smallest-area node whose scene rect contains
// p, ignoring z. Useful when targeting a child inside a raised container.
func (d *Diagram) SmallestNodeAt(p Point) *Node {
	var best *Node
	for _, n := range d.nodes {
		if !n.SceneRect().ContainsPoint(p) {
			continue
		}
		if best == nil || n.LocalRect().Area() < best.LocalRect().Area() {
			best = n
		}
	}
	return best
}
