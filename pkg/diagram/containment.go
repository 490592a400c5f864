package diagram

// CheckContainment re-evaluates which node, if any, fully contains n. It
// runs on drag release, never during the drag. A node already serving as
// n's direct parent stays a candidate so its containment is re-confirmed;
// other ancestors and all descendants of n are excluded. The smallest
// containing candidate wins. With no candidate, a parented node detaches to
// the scene root keeping its scene position.
func (d *Diagram) CheckContainment(n *Node) {
	if n.checkingParent || n.resizing {
		return
	}
	n.checkingParent = true
	defer func() { n.checkingParent = false }()

	my := n.SceneRect()
	var best *Node
	for _, cand := range d.nodes {
		if cand == n {
			continue
		}
		if n.IsAncestorOf(cand) {
			continue
		}
		if cand.IsAncestorOf(n) && cand != n.parent {
			continue
		}
		if !cand.SceneRect().ContainsRect(my) {
			continue
		}
		if best == nil || cand.LocalRect().Area() < best.LocalRect().Area() {
			best = cand
		}
	}

	switch {
	case best != nil && best != n.parent:
		d.reparent(n, best)
	case best == nil && n.parent != nil:
		d.reparent(n, nil)
	}
}

// reparent moves n under newParent (nil detaches to the root), converting
// its position so the scene position is preserved, and records the change.
// The new parent grows to fit; the old one keeps its size.
func (d *Diagram) reparent(n *Node, newParent *Node) {
	scenePos := n.ScenePos()
	oldParent := n.parent
	oldPos := n.Pos

	if oldParent != nil {
		oldParent.detachChild(n)
	}

	if newParent != nil {
		n.Pos = scenePos.Sub(newParent.ScenePos())
		newParent.attachChild(n)
	} else {
		n.Pos = scenePos
	}

	d.history.record(actionNodeReparent, n, nil, nodeReparentData{
		oldParent: oldParent,
		newParent: newParent,
		oldPos:    oldPos,
		newPos:    n.Pos,
	})
}

// reparentSilent is reparent without undo recording, for history replay.
func (d *Diagram) reparentSilent(n *Node, newParent *Node, pos Point) {
	if n.parent != nil {
		n.parent.detachChild(n)
	}
	n.Pos = pos
	if newParent != nil {
		newParent.attachChild(n)
	}
}
