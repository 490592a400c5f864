package diagram

import (
	"errors"

	"github.com/google/uuid"
)

// maxHistory bounds both stacks; the oldest entry is dropped on overflow.
const maxHistory = 50

var (
	// ErrNothingToUndo is returned when the undo stack empties without a
	// valid entry.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is the redo-side counterpart.
	ErrNothingToRedo = errors.New("nothing to redo")
)

type actionKind int

const (
	actionNodeMove actionKind = iota
	actionNodeCreate
	actionNodeDelete
	actionNodeTypeChange
	actionNodeResize
	actionNodeTitleChange
	actionNodeInitialChange
	actionNodeReparent
	actionEdgeCreate
	actionEdgeDelete
	actionEdgeConnectionChange
	actionEdgeWaypointChange
	actionEdgeTitleChange
)

// action is one reversible log entry. node and edge identify the subject;
// data carries the kind-specific old/new payload.
type action struct {
	kind actionKind
	node *Node
	edge *Edge
	data any
}

type nodeMoveData struct {
	old, new Point
}

type nodeCreateData struct {
	parent *Node
	pos    Point
}

type nodeDeleteData struct {
	snap  nodeSnapshot
	edges []edgeSnapshot
}

type nodeTypeData struct {
	oldType    NodeType
	newType    NodeType
	oldTitle   string
	oldInitial bool
}

type nodeResizeData struct {
	oldW, oldH float64
	newW, newH float64
}

type nodeTitleData struct {
	old, new string
}

type nodeInitialData struct {
	old, new bool
}

type nodeReparentData struct {
	oldParent *Node
	newParent *Node
	oldPos    Point
	newPos    Point
}

type edgeCreateData struct {
	from, to *Node
}

type edgeDeleteData struct {
	snap edgeSnapshot
}

type edgeConnData struct {
	oldStart, newStart *Point
	oldEnd, newEnd     *Point
}

type edgeWaypointData struct {
	old, new float64
}

type edgeTitleData struct {
	old, new string
}

// nodeSnapshot captures everything needed to recreate a deleted node in
// place. Children are not snapshotted; deleting a container loses its
// subtree permanently.
type nodeSnapshot struct {
	title       string
	typ         NodeType
	pos         Point
	w, h        float64
	isContainer bool
	isInitial   bool
	parent      *Node
}

// edgeSnapshot captures a deleted edge for restoration.
type edgeSnapshot struct {
	start, end  *Node
	title       string
	ratio       float64
	startOffset *Point
	endOffset   *Point
}

func snapshotNode(n *Node) nodeSnapshot {
	return nodeSnapshot{
		title:       n.Title,
		typ:         n.Type,
		pos:         n.Pos,
		w:           n.Width,
		h:           n.Height,
		isContainer: n.IsContainer,
		isInitial:   n.IsInitial,
		parent:      n.parent,
	}
}

func snapshotEdge(e *Edge) edgeSnapshot {
	return edgeSnapshot{
		start:       e.start.node,
		end:         e.end.node,
		title:       e.Title,
		ratio:       e.WaypointRatio,
		startOffset: copyPoint(e.start.offset),
		endOffset:   copyPoint(e.end.offset),
	}
}

// History is the bounded undo/redo log for one diagram. Every entry is
// validated against the current graph before replay; stale entries are
// skipped, not fatal.
type History struct {
	d    *Diagram
	undo []*action
	redo []*action
}

func newHistory(d *Diagram) *History {
	return &History{d: d}
}

// CanUndo reports whether the undo stack is non-empty. Entries may still
// prove stale when tried.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoDepth returns the number of pending undo entries.
func (h *History) UndoDepth() int { return len(h.undo) }

// Clear drops both stacks, used when loading a new document.
func (h *History) Clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

// record pushes a new entry and clears the redo stack.
func (h *History) record(kind actionKind, n *Node, e *Edge, data any) {
	h.undo = append(h.undo, &action{kind: kind, node: n, edge: e, data: data})
	if len(h.undo) > maxHistory {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
}

// Undo reverses the most recent valid entry and moves it to the redo
// stack. Entries whose subject no longer exists in the expected state are
// discarded and the next one is tried.
func (h *History) Undo() error {
	for len(h.undo) > 0 {
		act := h.undo[len(h.undo)-1]
		h.undo = h.undo[:len(h.undo)-1]
		if !h.validUndo(act) {
			continue
		}
		h.applyUndo(act)
		h.redo = append(h.redo, act)
		if len(h.redo) > maxHistory {
			h.redo = h.redo[1:]
		}
		return nil
	}
	return ErrNothingToUndo
}

// Redo reapplies the most recent valid undone entry.
func (h *History) Redo() error {
	for len(h.redo) > 0 {
		act := h.redo[len(h.redo)-1]
		h.redo = h.redo[:len(h.redo)-1]
		if !h.validRedo(act) {
			continue
		}
		h.applyRedo(act)
		h.undo = append(h.undo, act)
		if len(h.undo) > maxHistory {
			h.undo = h.undo[1:]
		}
		return nil
	}
	return ErrNothingToRedo
}

// validUndo checks the preconditions for reversing act: the subject must
// still exist for mutations, must exist for create (it will be removed),
// and must be absent for delete (it will be recreated).
func (h *History) validUndo(act *action) bool {
	d := h.d
	switch act.kind {
	case actionNodeCreate:
		return d.hasNode(act.node)
	case actionNodeDelete:
		data := act.data.(nodeDeleteData)
		if d.hasNode(act.node) {
			return false
		}
		return data.snap.parent == nil || d.hasNode(data.snap.parent)
	case actionNodeReparent:
		data := act.data.(nodeReparentData)
		if !d.hasNode(act.node) {
			return false
		}
		return data.oldParent == nil || d.hasNode(data.oldParent)
	case actionNodeMove, actionNodeTypeChange, actionNodeResize,
		actionNodeTitleChange, actionNodeInitialChange:
		return d.hasNode(act.node)
	case actionEdgeCreate:
		return d.hasEdge(act.edge)
	case actionEdgeDelete:
		data := act.data.(edgeDeleteData)
		if d.hasEdge(act.edge) {
			return false
		}
		return data.snap.start != nil && data.snap.end != nil &&
			d.hasNode(data.snap.start) && d.hasNode(data.snap.end)
	case actionEdgeConnectionChange, actionEdgeWaypointChange, actionEdgeTitleChange:
		return d.hasEdge(act.edge)
	}
	return false
}

// validRedo mirrors validUndo for the forward direction.
func (h *History) validRedo(act *action) bool {
	d := h.d
	switch act.kind {
	case actionNodeCreate:
		data := act.data.(nodeCreateData)
		if d.hasNode(act.node) {
			return false
		}
		return data.parent == nil || d.hasNode(data.parent)
	case actionNodeDelete:
		return d.hasNode(act.node)
	case actionNodeReparent:
		data := act.data.(nodeReparentData)
		if !d.hasNode(act.node) {
			return false
		}
		return data.newParent == nil || d.hasNode(data.newParent)
	case actionNodeMove, actionNodeTypeChange, actionNodeResize,
		actionNodeTitleChange, actionNodeInitialChange:
		return d.hasNode(act.node)
	case actionEdgeCreate:
		data := act.data.(edgeCreateData)
		if d.hasEdge(act.edge) {
			return false
		}
		return d.hasNode(data.from) && d.hasNode(data.to)
	case actionEdgeDelete:
		return d.hasEdge(act.edge)
	case actionEdgeConnectionChange, actionEdgeWaypointChange, actionEdgeTitleChange:
		return d.hasEdge(act.edge)
	}
	return false
}

func (h *History) applyUndo(act *action) {
	d := h.d
	switch act.kind {
	case actionNodeMove:
		data := act.data.(nodeMoveData)
		act.node.Pos = data.old

	case actionNodeCreate:
		d.deleteNodeCascade(act.node)

	case actionNodeDelete:
		data := act.data.(nodeDeleteData)
		restored := h.restoreNode(act.node, data.snap)
		for _, es := range data.edges {
			if es.start == act.node {
				es.start = restored
			}
			if es.end == act.node {
				es.end = restored
			}
			h.restoreEdge(es)
		}
		act.node = restored

	case actionNodeTypeChange:
		data := act.data.(nodeTypeData)
		act.node.Type = data.oldType
		act.node.Title = data.oldTitle
		act.node.IsInitial = data.oldInitial

	case actionNodeResize:
		data := act.data.(nodeResizeData)
		act.node.Width = data.oldW
		act.node.Height = data.oldH

	case actionNodeTitleChange:
		act.node.Title = act.data.(nodeTitleData).old

	case actionNodeInitialChange:
		act.node.IsInitial = act.data.(nodeInitialData).old

	case actionNodeReparent:
		data := act.data.(nodeReparentData)
		d.reparentSilent(act.node, data.oldParent, data.oldPos)

	case actionEdgeCreate:
		d.removeEdge(act.edge)

	case actionEdgeDelete:
		data := act.data.(edgeDeleteData)
		act.edge = h.restoreEdge(data.snap)

	case actionEdgeConnectionChange:
		data := act.data.(edgeConnData)
		act.edge.SetStartOffset(data.oldStart)
		act.edge.SetEndOffset(data.oldEnd)

	case actionEdgeWaypointChange:
		act.edge.WaypointRatio = act.data.(edgeWaypointData).old

	case actionEdgeTitleChange:
		act.edge.Title = act.data.(edgeTitleData).old
	}
}

func (h *History) applyRedo(act *action) {
	d := h.d
	switch act.kind {
	case actionNodeMove:
		act.node.Pos = act.data.(nodeMoveData).new

	case actionNodeCreate:
		data := act.data.(nodeCreateData)
		act.node = h.restoreNode(act.node, nodeSnapshot{
			title:       act.node.Title,
			typ:         act.node.Type,
			pos:         data.pos,
			w:           act.node.Width,
			h:           act.node.Height,
			isContainer: act.node.IsContainer,
			isInitial:   act.node.IsInitial,
			parent:      data.parent,
		})

	case actionNodeDelete:
		// Refresh the snapshots first: the node may have moved since the
		// original deletion.
		data := act.data.(nodeDeleteData)
		data.snap = snapshotNode(act.node)
		edges := data.edges[:0]
		for _, e := range d.edgesTouching(act.node) {
			edges = append(edges, snapshotEdge(e))
		}
		data.edges = edges
		act.data = data
		d.deleteNodeCascade(act.node)

	case actionNodeTypeChange:
		act.node.setType(act.data.(nodeTypeData).newType)

	case actionNodeResize:
		data := act.data.(nodeResizeData)
		act.node.Width = data.newW
		act.node.Height = data.newH

	case actionNodeTitleChange:
		act.node.Title = act.data.(nodeTitleData).new

	case actionNodeInitialChange:
		act.node.IsInitial = act.data.(nodeInitialData).new

	case actionNodeReparent:
		data := act.data.(nodeReparentData)
		d.reparentSilent(act.node, data.newParent, data.newPos)

	case actionEdgeCreate:
		data := act.data.(edgeCreateData)
		act.edge = h.restoreEdge(edgeSnapshot{
			start:       data.from,
			end:         data.to,
			title:       act.edge.Title,
			ratio:       act.edge.WaypointRatio,
			startOffset: act.edge.StartOffset(),
			endOffset:   act.edge.EndOffset(),
		})

	case actionEdgeDelete:
		d.removeEdge(act.edge)

	case actionEdgeConnectionChange:
		data := act.data.(edgeConnData)
		act.edge.SetStartOffset(data.newStart)
		act.edge.SetEndOffset(data.newEnd)

	case actionEdgeWaypointChange:
		act.edge.WaypointRatio = act.data.(edgeWaypointData).new

	case actionEdgeTitleChange:
		act.edge.Title = act.data.(edgeTitleData).new
	}
}

// restoreNode rebuilds a deleted node from its snapshot, keeping the old
// identity alive for the rest of the log by re-linking every entry that
// still references the stale instance.
func (h *History) restoreNode(old *Node, snap nodeSnapshot) *Node {
	n := &Node{
		ID:          old.ID,
		Title:       snap.title,
		Type:        snap.typ,
		Pos:         snap.pos,
		Width:       snap.w,
		Height:      snap.h,
		IsContainer: snap.isContainer,
		IsInitial:   snap.isInitial,
	}
	if snap.parent != nil && h.d.hasNode(snap.parent) {
		snap.parent.attachChild(n)
	}
	h.d.insertNode(n)
	h.relinkNode(old, n)
	return n
}

// restoreEdge rebuilds a deleted edge from its snapshot, provided both
// endpoints still exist, and re-links stale references to it.
func (h *History) restoreEdge(snap edgeSnapshot) *Edge {
	if snap.start == nil || snap.end == nil ||
		!h.d.hasNode(snap.start) || !h.d.hasNode(snap.end) {
		return nil
	}
	e := &Edge{
		ID:            uuid.New(),
		Title:         snap.title,
		WaypointRatio: snap.ratio,
		start:         endpoint{node: snap.start, offset: copyPoint(snap.startOffset)},
		end:           endpoint{node: snap.end, offset: copyPoint(snap.endOffset)},
	}
	h.d.insertEdge(e)
	return e
}

// relinkNode rewrites every pending entry in both stacks that references
// the stale node instance so chained undo/redo across a delete-then-edit
// sequence stays consistent.
func (h *History) relinkNode(old, new *Node) {
	fix := func(n *Node) *Node {
		if n == old {
			return new
		}
		return n
	}

	for _, stack := range [][]*action{h.undo, h.redo} {
		for _, act := range stack {
			act.node = fix(act.node)
			if act.edge != nil {
				act.edge.start.node = fix(act.edge.start.node)
				act.edge.end.node = fix(act.edge.end.node)
			}

			switch data := act.data.(type) {
			case nodeCreateData:
				data.parent = fix(data.parent)
				act.data = data
			case nodeDeleteData:
				data.snap.parent = fix(data.snap.parent)
				for i := range data.edges {
					data.edges[i].start = fix(data.edges[i].start)
					data.edges[i].end = fix(data.edges[i].end)
				}
				act.data = data
			case nodeReparentData:
				data.oldParent = fix(data.oldParent)
				data.newParent = fix(data.newParent)
				act.data = data
			case edgeCreateData:
				data.from = fix(data.from)
				data.to = fix(data.to)
				act.data = data
			case edgeDeleteData:
				data.snap.start = fix(data.snap.start)
				data.snap.end = fix(data.snap.end)
				act.data = data
			}
		}
	}
}
