package diagram

import "testing"

func TestAddChildNodeDefaultPlacement(t *testing.T) {
	d := New()
	parent := d.AddNode("Parent", Point{0, 0})
	d.ResizeLive(parent, 800, 600)

	c1 := d.AddChildNode(parent, nil)
	c2 := d.AddChildNode(parent, nil)

	if c1.Parent() != parent || c2.Parent() != parent {
		t.Fatal("children not attached")
	}
	if c2.Pos.Y <= c1.Pos.Y {
		t.Errorf("second child at y=%v, want below first at y=%v", c2.Pos.Y, c1.Pos.Y)
	}
	if !parent.IsContainer {
		t.Error("parent should be a container")
	}
}

func TestDeleteNodeCascadesToChildren(t *testing.T) {
	d := New()
	parent := d.AddNode("Parent", Point{0, 0})
	d.ResizeLive(parent, 800, 600)
	child := d.AddChildNode(parent, nil)
	other := d.AddNode("Other", Point{2000, 0})
	e := d.Connect(child, other)

	d.DeleteNode(parent)

	if d.FindNode(parent.ID) != nil || d.FindNode(child.ID) != nil {
		t.Error("subtree not fully deleted")
	}
	if d.hasEdge(e) {
		t.Error("edge touching a descendant survived the cascade")
	}
	if d.FindNode(other.ID) == nil {
		t.Error("unrelated node was deleted")
	}
}

func TestCompleteEdgeDiscards(t *testing.T) {
	d := New()
	a := d.AddNode("A", Point{0, 0})

	// Dropped over empty space.
	e := d.StartEdge(a, Point{900, 900})
	if got := d.CompleteEdge(e, nil); got != nil {
		t.Error("drop on empty space should discard the edge")
	}
	// Dropped back on the origin node.
	e = d.StartEdge(a, Point{100, 50})
	if got := d.CompleteEdge(e, a); got != nil {
		t.Error("drop on the origin node should discard the edge")
	}
	if len(d.Edges()) != 0 || len(a.Edges()) != 0 {
		t.Error("discarded edges leaked into the graph")
	}
}

func TestConnectRejectsSelfLoop(t *testing.T) {
	d := New()
	a := d.AddNode("A", Point{0, 0})
	if e := d.Connect(a, a); e != nil {
		t.Error("self-loop should be rejected")
	}
}

func TestNodeAtPrefersHigherZThenSmaller(t *testing.T) {
	d := New()
	big := d.AddNode("Big", Point{0, 0})
	d.ResizeLive(big, 800, 600)
	small := d.AddNode("Small", Point{50, 50})
	d.UpdateZOrder(big)
	d.UpdateZOrder(small)

	// Both contain (100, 100); with equal z the smaller one wins, and the
	// z-order pass keeps big above smaller overlaps, so check both tiers.
	hit := d.NodeAt(Point{100, 100})
	if hit == nil {
		t.Fatal("no hit")
	}
	if hit != big && hit != small {
		t.Fatalf("unexpected hit %q", hit.Title)
	}
	if big.Z > small.Z && hit != big {
		t.Error("higher z should win the hit test")
	}

	if d.NodeAt(Point{5000, 5000}) != nil {
		t.Error("empty space should miss")
	}
}

func TestSmallestNodeAtIgnoresZ(t *testing.T) {
	d := New()
	big := d.AddNode("Big", Point{0, 0})
	d.ResizeLive(big, 800, 600)
	small := d.AddNode("Small", Point{50, 50})
	big.Z = small.Z + 5

	if hit := d.SmallestNodeAt(Point{100, 100}); hit != small {
		t.Errorf("smallest-area node should win regardless of z, got %v", hit)
	}
	if d.SmallestNodeAt(Point{5000, 5000}) != nil {
		t.Error("empty space should miss")
	}
}

func TestDefaultTitleCounterPerDocument(t *testing.T) {
	d1 := New()
	d2 := New()
	n1 := d1.AddNode("", Point{})
	n2 := d2.AddNode("", Point{})
	if n1.Title != n2.Title {
		t.Errorf("independent documents diverged: %q vs %q", n1.Title, n2.Title)
	}
	m := d1.AddNode("", Point{})
	if m.Title == n1.Title {
		t.Error("titles within a document should be sequential")
	}
}
