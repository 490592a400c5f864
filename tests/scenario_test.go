// Package tests contains integration tests that drive a full editing
// session across the diagram, file, and export packages.
package tests

import (
	"bytes"
	"strings"
	"testing"

	"github.com/themodeller/modeller/pkg/diagfile"
	"github.com/themodeller/modeller/pkg/diagram"
)

// TestEditingSession walks a session the way an editor frontend would:
// create nodes, connect them, drag one into a container, adjust the edge,
// undo part of it, then save and export.
func TestEditingSession(t *testing.T) {
	d := diagram.New()

	machine := d.AddNode("", diagram.Point{X: 0, Y: 0})
	d.SetNodeType(machine, diagram.TypeStateMachine)
	d.SetNodeTitle(machine, "Controller")
	d.BeginResize(machine)
	d.ResizeLive(machine, 600, 400)
	d.EndResize(machine, 200, 100)

	idle := d.AddNode("", diagram.Point{X: 900, Y: 0})
	d.SetNodeType(idle, diagram.TypeState)
	d.SetNodeTitle(idle, "Idle")
	d.SetNodeInitial(idle, true)

	running := d.AddNode("", diagram.Point{X: 900, Y: 400})
	d.SetNodeType(running, diagram.TypeState)
	d.SetNodeTitle(running, "Running")

	go1 := d.Connect(idle, running)
	d.SetEdgeTitle(go1, "start")
	stop := d.Connect(running, idle)
	d.SetEdgeTitle(stop, "stop")

	// Drop Idle onto the machine; it becomes a child and keeps its
	// scene position.
	d.MoveNode(idle, diagram.Point{X: 900, Y: 0}, diagram.Point{X: 50, Y: 60})
	if idle.Parent() != machine {
		t.Fatalf("idle parent = %v, want machine", idle.Parent())
	}
	if sp := idle.ScenePos(); sp != (diagram.Point{X: 50, Y: 60}) {
		t.Errorf("scene pos after adoption = %v, want {50 60}", sp)
	}

	// Waypoint adjust on the start edge.
	d.SetEdgeWaypoint(go1, go1.WaypointRatio, 0.3)
	if go1.WaypointRatio != 0.3 {
		t.Fatalf("ratio = %g", go1.WaypointRatio)
	}

	// Undo the waypoint change.
	if err := d.History().Undo(); err != nil {
		t.Fatalf("undo waypoint: %v", err)
	}
	if go1.WaypointRatio != diagram.DefaultWaypointRatio {
		t.Errorf("ratio after undo = %g, want %g", go1.WaypointRatio, diagram.DefaultWaypointRatio)
	}

	// Save and reload; the structure must survive.
	data, err := diagfile.ToDocumentJSON(d, true)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	loaded, err := diagfile.ParseDocument(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(loaded.Nodes()) != 3 || len(loaded.Edges()) != 2 {
		t.Fatalf("loaded %d nodes / %d edges, want 3 / 2",
			len(loaded.Nodes()), len(loaded.Edges()))
	}

	// And the export pipeline accepts what the codec produced.
	page, err := diagfile.GenerateHTML(data, diagfile.DefaultHTMLOptions())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(page, "Controller") || !strings.Contains(page, "start") {
		t.Error("export lost node or edge titles")
	}
}

// TestRoutingGeometry checks the documented orthogonal route for two
// side-by-side nodes.
func TestRoutingGeometry(t *testing.T) {
	d := diagram.New()
	a := d.AddNode("A", diagram.Point{X: 0, Y: 0})
	b := d.AddNode("B", diagram.Point{X: 300, Y: 0})
	e := d.Connect(a, b)

	path := e.Route()
	want := []diagram.Point{
		{X: 200, Y: 50},
		{X: 250, Y: 50},
		{X: 250, Y: 50},
		{X: 300, Y: 50},
	}
	if len(path) != len(want) {
		t.Fatalf("path length = %d, want %d", len(path), len(want))
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("path[%d] = %v, want %v", i, path[i], want[i])
		}
	}
}

// TestWaypointNudgeStaysLoadable nudges an edge waypoint past both ends
// the way the editor's bracket keys do, then saves and reloads. The
// committed ratio must stay inside [0,1] so the document remains valid.
func TestWaypointNudgeStaysLoadable(t *testing.T) {
	d := diagram.New()
	a := d.AddNode("A", diagram.Point{X: 0, Y: 0})
	b := d.AddNode("B", diagram.Point{X: 300, Y: 0})
	e := d.Connect(a, b)

	for i := 0; i < 7; i++ {
		d.SetEdgeWaypoint(e, e.WaypointRatio, e.WaypointRatio+0.1)
	}
	if e.WaypointRatio != 1 {
		t.Fatalf("ratio after nudging past the end = %g, want 1", e.WaypointRatio)
	}

	data, err := diagfile.ToDocumentJSON(d, false)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	loaded, err := diagfile.ParseDocument(data)
	if err != nil {
		t.Fatalf("reload after nudging: %v", err)
	}
	if got := loaded.Edges()[0].WaypointRatio; got != 1 {
		t.Errorf("reloaded ratio = %g, want 1", got)
	}

	for i := 0; i < 15; i++ {
		d.SetEdgeWaypoint(e, e.WaypointRatio, e.WaypointRatio-0.1)
	}
	if e.WaypointRatio != 0 {
		t.Errorf("ratio after nudging past the start = %g, want 0", e.WaypointRatio)
	}
}

// TestBundlePipeline saves a session as a design bundle and reloads it.
func TestBundlePipeline(t *testing.T) {
	d := diagram.New()
	outer := d.AddNode("Outer", diagram.Point{X: 0, Y: 0})
	inner := d.AddChildNode(outer, nil)
	d.SetNodeTitle(inner, "Inner")

	var buf bytes.Buffer
	if err := diagfile.WriteDesign(&buf, d, diagfile.DesignMeta{Name: "nested"}); err != nil {
		t.Fatalf("WriteDesign: %v", err)
	}

	loaded, meta, err := diagfile.ReadDesignBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadDesignBytes: %v", err)
	}
	if meta == nil || meta.Name != "nested" || meta.NodeCount != 2 {
		t.Errorf("meta = %+v", meta)
	}

	var reloadedInner *diagram.Node
	for _, n := range loaded.Nodes() {
		if n.Title == "Inner" {
			reloadedInner = n
		}
	}
	if reloadedInner == nil || reloadedInner.Parent() == nil {
		t.Fatal("nesting lost through the bundle")
	}
	if reloadedInner.Parent().Title != "Outer" {
		t.Errorf("parent = %q, want Outer", reloadedInner.Parent().Title)
	}
}

// TestUndoSurvivesSerialization ensures a reloaded diagram starts a fresh
// history and the original keeps its own.
func TestUndoSurvivesSerialization(t *testing.T) {
	d := diagram.New()
	n := d.AddNode("N", diagram.Point{X: 0, Y: 0})
	d.MoveNode(n, diagram.Point{X: 0, Y: 0}, diagram.Point{X: 500, Y: 0})

	data, err := diagfile.ToDocumentJSON(d, false)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	loaded, err := diagfile.ParseDocument(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if loaded.History().CanUndo() {
		t.Error("loaded diagram should start with an empty history")
	}
	if !d.History().CanUndo() {
		t.Error("original diagram lost its history")
	}
	if err := d.History().Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if n.Pos.X != 0 {
		t.Errorf("pos after undo = %g, want 0", n.Pos.X)
	}
}
