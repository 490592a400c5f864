package diagfile

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

const exportDoc = `{
  "nodes": [
    {"id": 1, "title": "StateMachine", "pos": {"x": 0, "y": 0},
     "rect": {"width": 200, "height": 100}, "node_type": "StateMachine"},
    {"id": 2, "title": "State", "pos": {"x": 300, "y": 0},
     "rect": {"width": 200, "height": 100}, "node_type": "State", "is_initial": true}
  ],
  "edges": [
    {"start_node_id": 1, "end_node_id": 2, "title": "go",
     "waypoint_ratio": 0.5,
     "start_offset": {"x": 200, "y": 50}, "end_offset": {"x": 0, "y": 50}}
  ]
}`

const nestedDoc = `{
  "nodes": [
    {"id": 1, "title": "Outer", "pos": {"x": 0, "y": 0},
     "rect": {"width": 400, "height": 300}, "node_type": "StateMachine",
     "is_container": true},
    {"id": 2, "title": "Inner", "pos": {"x": 50, "y": 50},
     "rect": {"width": 200, "height": 100}, "node_type": "State", "parent_id": 1}
  ],
  "edges": []
}`

func TestSVGEdgePath(t *testing.T) {
	svg, err := GenerateSVG([]byte(exportDoc), DefaultSVGOptions())
	if err != nil {
		t.Fatalf("GenerateSVG: %v", err)
	}

	// Pinned endpoints at (200,50) and (300,50) with ratio 0.5 route
	// through a waypoint at x=250.
	want := `d="M 200,50 L 250,50 L 250,50 L 300,50"`
	if !strings.Contains(svg, want) {
		t.Errorf("svg missing path %s\n%s", want, svg)
	}
	if !strings.Contains(svg, `marker-end="url(#arrowhead)"`) {
		t.Error("edge path missing arrowhead marker")
	}
}

func TestSVGEdgeLabelOnLongestSegment(t *testing.T) {
	svg, err := GenerateSVG([]byte(exportDoc), DefaultSVGOptions())
	if err != nil {
		t.Fatalf("GenerateSVG: %v", err)
	}

	// Both horizontal runs are 50 long and the vertical one is 0, so the
	// label centres over the first segment, lifted 10 above it.
	if !strings.Contains(svg, `x="225" y="40" text-anchor="middle"`) {
		t.Errorf("edge label misplaced:\n%s", svg)
	}
	if !strings.Contains(svg, ">go</text>") {
		t.Error("edge label text missing")
	}
}

func TestSVGNodeAppearance(t *testing.T) {
	svg, err := GenerateSVG([]byte(exportDoc), DefaultSVGOptions())
	if err != nil {
		t.Fatalf("GenerateSVG: %v", err)
	}

	if !strings.Contains(svg, `fill="#3a4a5a" stroke="#5a7a9a"`) {
		t.Error("state machine colors missing")
	}
	if !strings.Contains(svg, `fill="#2a3a4a" stroke="#4a6a8a"`) {
		t.Error("state colors missing")
	}
	// Initial marker on node 2: white dot at (x+w-20, y+15).
	if !strings.Contains(svg, `<circle cx="480" cy="15" r="10" fill="white"`) {
		t.Errorf("initial marker missing:\n%s", svg)
	}
}

func TestSVGNestedChildOffset(t *testing.T) {
	svg, err := GenerateSVG([]byte(nestedDoc), DefaultSVGOptions())
	if err != nil {
		t.Fatalf("GenerateSVG: %v", err)
	}

	// Child position is parent-relative plus the title bar drop.
	if !strings.Contains(svg, `<rect x="50" y="80" width="200" height="100"`) {
		t.Errorf("nested child not offset by title bar:\n%s", svg)
	}
}

func TestSVGEscapesTitles(t *testing.T) {
	doc := `{
	  "nodes": [{"id": 1, "title": "<Fire & Run>", "pos": {"x": 0, "y": 0},
	    "rect": {"width": 200, "height": 100}}],
	  "edges": []
	}`
	svg, err := GenerateSVG([]byte(doc), DefaultSVGOptions())
	if err != nil {
		t.Fatalf("GenerateSVG: %v", err)
	}
	if strings.Contains(svg, "<Fire") {
		t.Error("title not escaped")
	}
	if !strings.Contains(svg, "&lt;Fire &amp; Run&gt;") {
		t.Errorf("escaped title missing:\n%s", svg)
	}
}

func TestHTMLPage(t *testing.T) {
	page, err := GenerateHTML([]byte(exportDoc), DefaultHTMLOptions())
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Statechart Diagram</title>",
		"<svg ",
		"legend-statemachine",
		"<li><strong>Total Nodes:</strong> 2</li>",
		"<li><strong>Total Transitions:</strong> 1</li>",
		"<li><strong>State Machines:</strong> 1</li>",
		"<li><strong>States:</strong> 1</li>",
		"<li><strong>Initial States:</strong> 1</li>",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHTMLCustomTitleEscaped(t *testing.T) {
	opts := DefaultHTMLOptions()
	opts.Title = "A & B"
	page, err := GenerateHTML([]byte(exportDoc), opts)
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}
	if !strings.Contains(page, "<title>A &amp; B</title>") {
		t.Error("page title not escaped")
	}
}

func TestHTMLRejectsInvalidDocument(t *testing.T) {
	if _, err := GenerateHTML([]byte(`{"nodes": []}`), DefaultHTMLOptions()); err == nil {
		t.Fatal("expected error for invalid document")
	}
}

func TestRenderPNGProducesImage(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG([]byte(exportDoc), &buf, DefaultPNGOptions()); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode rendered PNG: %v", err)
	}

	// Content spans x 0..500, y 0..100 plus 100 padding each side.
	b := img.Bounds()
	if b.Dx() != 700 || b.Dy() != 300 {
		t.Errorf("image size = %dx%d, want 700x300", b.Dx(), b.Dy())
	}
}
