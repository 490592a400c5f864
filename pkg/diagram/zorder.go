package diagram

// UpdateZOrder recomputes n's stacking value from the nodes it overlaps.
// With no overlapping node at all, z resets to 0. Otherwise n is raised
// just above the highest z among overlapping nodes of strictly smaller
// area, unless it already sits above them. Suppressed while a resize
// gesture is in flux, and never applied to a selected node, whose z is
// pinned at SelectedZ until deselection.
func (d *Diagram) UpdateZOrder(n *Node) {
	if n.resizing || n.Selected {
		return
	}

	my := n.SceneRect()
	area := n.LocalRect().Area()

	overlapping := false
	maxZ := -1.0
	for _, other := range d.nodes {
		if other == n {
			continue
		}
		if !other.SceneRect().Intersects(my) {
			continue
		}
		overlapping = true
		if other.LocalRect().Area() < area && other.Z > maxZ {
			maxZ = other.Z
		}
	}

	if !overlapping {
		n.Z = 0
		return
	}
	if maxZ >= 0 && n.Z <= maxZ {
		n.Z = maxZ + 1
	}
}
