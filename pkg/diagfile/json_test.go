package diagfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/themodeller/modeller/pkg/diagram"
)

// buildSample creates a diagram covering nested containers two levels deep,
// multiple edges with custom offsets, and non-default waypoint ratios.
func buildSample(t *testing.T) *diagram.Diagram {
	t.Helper()
	d := diagram.New()

	// SetNodeType resets the title, so names go on afterwards.
	root := d.AddNode("", diagram.Point{X: 50, Y: 50})
	d.SetNodeType(root, diagram.TypeStateMachine)
	d.SetNodeTitle(root, "Machine")

	mid := d.AddChildNode(root, &diagram.Point{X: 20, Y: 40})
	d.SetNodeType(mid, diagram.TypeState)

	leaf := d.AddChildNode(mid, &diagram.Point{X: 30, Y: 50})
	d.SetNodeType(leaf, diagram.TypeState)
	d.SetNodeInitial(leaf, true)

	other := d.AddNode("", diagram.Point{X: 900, Y: 200})
	d.SetNodeType(other, diagram.TypeState)
	d.SetNodeTitle(other, "Idle")

	e1 := d.Connect(root, other)
	d.SetEdgeTitle(e1, "start")
	d.SetEdgeWaypoint(e1, e1.WaypointRatio, 0.25)
	d.SetEdgeOffsets(e1,
		&diagram.Point{X: root.Width, Y: 40},
		&diagram.Point{X: 0, Y: 60})

	e2 := d.Connect(other, root)
	d.SetEdgeTitle(e2, "reset")
	d.SetEdgeWaypoint(e2, e2.WaypointRatio, 0.8)

	return d
}

func TestRoundTripIsomorphic(t *testing.T) {
	d := buildSample(t)

	first, err := ToDocumentJSON(d, true)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	loaded, err := ParseDocument(first)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	second, err := ToDocumentJSON(loaded, true)
	if err != nil {
		t.Fatalf("re-serialize: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("round trip not stable\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestRoundTripStructure(t *testing.T) {
	d := buildSample(t)
	data, err := ToDocumentJSON(d, false)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	loaded, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got, want := len(loaded.Nodes()), len(d.Nodes()); got != want {
		t.Fatalf("node count = %d, want %d", got, want)
	}
	if got, want := len(loaded.Edges()), len(d.Edges()); got != want {
		t.Fatalf("edge count = %d, want %d", got, want)
	}

	var machine *diagram.Node
	for _, n := range loaded.Nodes() {
		if n.Title == "Machine" {
			machine = n
		}
	}
	if machine == nil {
		t.Fatal("Machine node missing after round trip")
	}
	if machine.Type != diagram.TypeStateMachine {
		t.Errorf("Machine type = %q, want StateMachine", machine.Type)
	}
	if !machine.IsContainer {
		t.Error("Machine lost its container flag")
	}

	// Nesting survives two levels deep.
	depth := 0
	var deepest *diagram.Node
	for _, n := range loaded.Nodes() {
		dpt := 0
		for p := n.Parent(); p != nil; p = p.Parent() {
			dpt++
		}
		if dpt > depth {
			depth = dpt
			deepest = n
		}
	}
	if depth != 2 {
		t.Fatalf("deepest nesting = %d, want 2", depth)
	}
	if !deepest.IsInitial {
		t.Error("deepest state lost its initial flag")
	}

	var start, reset *diagram.Edge
	for _, e := range loaded.Edges() {
		switch e.Title {
		case "start":
			start = e
		case "reset":
			reset = e
		}
	}
	if start == nil || reset == nil {
		t.Fatal("edges missing after round trip")
	}
	if start.WaypointRatio != 0.25 {
		t.Errorf("start ratio = %g, want 0.25", start.WaypointRatio)
	}
	if reset.WaypointRatio != 0.8 {
		t.Errorf("reset ratio = %g, want 0.8", reset.WaypointRatio)
	}
	off := start.StartOffset()
	if off == nil || off.Y != 40 {
		t.Errorf("start edge lost its start offset: %v", off)
	}
	if reset.StartOffset() != nil || reset.EndOffset() != nil {
		t.Error("reset edge grew offsets it never had")
	}
}

func TestParsedDiagramHasEmptyHistory(t *testing.T) {
	data, err := ToDocumentJSON(buildSample(t), false)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	loaded, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if loaded.History().CanUndo() {
		t.Error("freshly loaded diagram should have nothing to undo")
	}
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := ParseDocument([]byte(`{"nodes": [`))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("error type = %T, want *LoadError", err)
	}
}

func TestParseSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing edges", `{"nodes": []}`},
		{"bad node type", `{"nodes": [{"id": 1, "title": "A",
			"pos": {"x": 0, "y": 0}, "rect": {"width": 200, "height": 100},
			"node_type": "Widget"}], "edges": []}`},
		{"zero width", `{"nodes": [{"id": 1, "title": "A",
			"pos": {"x": 0, "y": 0}, "rect": {"width": 0, "height": 100}}],
			"edges": []}`},
		{"ratio out of range", `{"nodes": [
			{"id": 1, "title": "A", "pos": {"x": 0, "y": 0}, "rect": {"width": 200, "height": 100}},
			{"id": 2, "title": "B", "pos": {"x": 300, "y": 0}, "rect": {"width": 200, "height": 100}}],
			"edges": [{"start_node_id": 1, "end_node_id": 2, "waypoint_ratio": 1.5}]}`},
		{"unknown field", `{"nodes": [], "edges": [], "zoom": 2}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tc.doc))
			if err == nil {
				t.Fatal("expected validation error")
			}
			var lerr *LoadError
			if !errors.As(err, &lerr) {
				t.Fatalf("error type = %T, want *LoadError", err)
			}
			if len(lerr.Violations) == 0 {
				t.Error("LoadError carries no violations")
			}
		})
	}
}

func TestParseReferenceErrors(t *testing.T) {
	t.Run("duplicate node id", func(t *testing.T) {
		doc := `{"nodes": [
			{"id": 1, "title": "A", "pos": {"x": 0, "y": 0}, "rect": {"width": 200, "height": 100}},
			{"id": 1, "title": "B", "pos": {"x": 300, "y": 0}, "rect": {"width": 200, "height": 100}}],
			"edges": []}`
		_, err := ParseDocument([]byte(doc))
		if err == nil || !strings.Contains(err.Error(), "duplicate node id") {
			t.Fatalf("err = %v, want duplicate node id", err)
		}
	})

	t.Run("unknown parent", func(t *testing.T) {
		doc := `{"nodes": [
			{"id": 1, "title": "A", "pos": {"x": 0, "y": 0},
			 "rect": {"width": 200, "height": 100}, "parent_id": 99}],
			"edges": []}`
		_, err := ParseDocument([]byte(doc))
		if err == nil || !strings.Contains(err.Error(), "unknown parent") {
			t.Fatalf("err = %v, want unknown parent", err)
		}
	})

	t.Run("parent cycle", func(t *testing.T) {
		doc := `{"nodes": [
			{"id": 1, "title": "A", "pos": {"x": 0, "y": 0},
			 "rect": {"width": 200, "height": 100}, "parent_id": 2},
			{"id": 2, "title": "B", "pos": {"x": 0, "y": 0},
			 "rect": {"width": 200, "height": 100}, "parent_id": 1}],
			"edges": []}`
		_, err := ParseDocument([]byte(doc))
		if err == nil || !strings.Contains(err.Error(), "parent cycle") {
			t.Fatalf("err = %v, want parent cycle", err)
		}
	})

	t.Run("unknown edge endpoint", func(t *testing.T) {
		doc := `{"nodes": [
			{"id": 1, "title": "A", "pos": {"x": 0, "y": 0}, "rect": {"width": 200, "height": 100}}],
			"edges": [{"start_node_id": 1, "end_node_id": 7}]}`
		_, err := ParseDocument([]byte(doc))
		if err == nil || !strings.Contains(err.Error(), "unknown end node") {
			t.Fatalf("err = %v, want unknown end node", err)
		}
	})
}
