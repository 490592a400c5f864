package diagfile

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/themodeller/modeller/pkg/diagram"
)

// SVGOptions configures the static diagram rendering.
type SVGOptions struct {
	Padding       float64 // margin around the drawing
	FontSize      float64 // edge label size
	TitleFontSize float64 // node title size
}

// DefaultSVGOptions returns standard rendering options.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Padding:       100,
		FontSize:      12,
		TitleFontSize: 14,
	}
}

// nodeColors maps a node type to its fill, stroke, and title colors.
func nodeColors(nodeType *string) (fill, stroke, title string) {
	t := ""
	if nodeType != nil {
		t = *nodeType
	}
	switch t {
	case "StateMachine":
		return "#3a4a5a", "#5a7a9a", "#88ccff"
	case "State":
		return "#2a3a4a", "#4a6a8a", "#aaddff"
	default:
		return "#2a2a3a", "#4a4a6a", "#ccccff"
	}
}

// renderer walks a wire document with resolved parent/child links.
type renderer struct {
	doc      *jsonDocument
	byID     map[int]*jsonNode
	children map[int][]*jsonNode
	roots    []*jsonNode
}

func newRenderer(doc *jsonDocument) *renderer {
	r := &renderer{
		doc:      doc,
		byID:     make(map[int]*jsonNode, len(doc.Nodes)),
		children: make(map[int][]*jsonNode),
	}
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		r.byID[n.ID] = n
	}
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.ParentID != nil && r.byID[*n.ParentID] != nil {
			r.children[*n.ParentID] = append(r.children[*n.ParentID], n)
		} else {
			r.roots = append(r.roots, n)
		}
	}
	return r
}

// absPos resolves a node's top-left in page coordinates, walking the
// parent chain and adding a title-bar offset per ancestor level.
func (r *renderer) absPos(n *jsonNode) (float64, float64) {
	x := n.Pos.X
	y := n.Pos.Y
	parentID := n.ParentID
	for parentID != nil {
		parent := r.byID[*parentID]
		if parent == nil {
			break
		}
		x += parent.Pos.X
		y += parent.Pos.Y + diagram.TitleBarHeight
		parentID = parent.ParentID
	}
	return x, y
}

func (r *renderer) absRect(n *jsonNode) diagram.Rect {
	x, y := r.absPos(n)
	return diagram.Rect{X: x, Y: y, W: n.Rect.Width, H: n.Rect.Height}
}

// bounds returns the drawing extent with padding applied.
func (r *renderer) bounds(padding float64) (minX, minY, w, h float64) {
	if len(r.doc.Nodes) == 0 {
		return 0, 0, 2 * padding, 2 * padding
	}
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for i := range r.doc.Nodes {
		n := &r.doc.Nodes[i]
		x, y := r.absPos(n)
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x+n.Rect.Width)
		maxY = math.Max(maxY, y+n.Rect.Height)
	}
	minX -= padding
	minY -= padding
	maxX += padding
	maxY += padding
	return minX, minY, maxX - minX, maxY - minY
}

// connectionPoint resolves an edge endpoint: a saved offset is applied to
// the node's absolute position, otherwise the live border-intersection
// rule aims at the opposite anchor.
func (r *renderer) connectionPoint(n *jsonNode, offset *jsonPoint, target diagram.Point) diagram.Point {
	x, y := r.absPos(n)
	if offset != nil {
		return diagram.Point{X: x + offset.X, Y: y + offset.Y}
	}
	return diagram.BorderIntersection(r.absRect(n), target)
}

func (r *renderer) edgeSVG(b *strings.Builder, e *jsonEdge, opts SVGOptions) {
	start := r.byID[e.StartNodeID]
	end := r.byID[e.EndNodeID]
	if start == nil || end == nil {
		return
	}

	startCenter := r.absRect(start).Center()
	endCenter := r.absRect(end).Center()
	p0 := r.connectionPoint(start, e.StartOffset, endCenter)
	p1 := r.connectionPoint(end, e.EndOffset, startCenter)

	ratio := e.WaypointRatio
	waypointX := p0.X + (p1.X-p0.X)*ratio

	// Which border of the end node does the edge meet: the more displaced
	// normalized axis decides whether the approach is horizontal or
	// vertical, so the arrow-head lands perpendicular to the border.
	relX := p1.X - endCenter.X
	relY := p1.Y - endCenter.Y
	normX, normY := 0.0, 0.0
	if end.Rect.Width > 0 {
		normX = math.Abs(relX) / (end.Rect.Width / 2)
	}
	if end.Rect.Height > 0 {
		normY = math.Abs(relY) / (end.Rect.Height / 2)
	}

	var path strings.Builder
	fmt.Fprintf(&path, "M %g,%g", p0.X, p0.Y)
	fmt.Fprintf(&path, " L %g,%g", waypointX, p0.Y)
	fmt.Fprintf(&path, " L %g,%g", waypointX, p1.Y)
	if normX > normY {
		fmt.Fprintf(&path, " L %g,%g", p1.X, p1.Y)
	} else if math.Abs(p1.X-waypointX) > 1 {
		fmt.Fprintf(&path, " L %g,%g", p1.X, p1.Y)
	}

	// The label sits alongside the longest of the three segments.
	seg1 := math.Abs(waypointX - p0.X)
	seg2 := math.Abs(p1.Y - p0.Y)
	seg3 := math.Abs(p1.X - waypointX)

	var labelX, labelY float64
	anchor := "middle"
	switch {
	case seg2 >= seg1 && seg2 >= seg3:
		labelX = waypointX + 15
		labelY = (p0.Y + p1.Y) / 2
		anchor = "start"
	case seg1 >= seg3:
		labelX = (p0.X + waypointX) / 2
		labelY = p0.Y - 10
	default:
		if normX > normY {
			labelX = (waypointX + p1.X) / 2
			labelY = p1.Y - 10
		} else {
			labelX = waypointX + 15
			labelY = (p0.Y + p1.Y) / 2
			anchor = "start"
		}
	}

	fmt.Fprintf(b, `  <g class="edge" id="edge_%d_%d">`+"\n", e.StartNodeID, e.EndNodeID)
	fmt.Fprintf(b, `    <path d="%s" class="edge-path" fill="none" stroke="#aaddff" stroke-width="2" marker-end="url(#arrowhead)"/>`+"\n",
		path.String())
	fmt.Fprintf(b, `    <text class="edge-label" x="%g" y="%g" text-anchor="%s" fill="#ddd" font-size="%g">%s</text>`+"\n",
		labelX, labelY, anchor, opts.FontSize, html.EscapeString(e.Title))
	b.WriteString("  </g>\n")
}

func (r *renderer) nodeSVG(b *strings.Builder, n *jsonNode, depth int, opts SVGOptions) {
	x, y := r.absPos(n)
	w, h := n.Rect.Width, n.Rect.Height
	fill, stroke, titleColor := nodeColors(n.NodeType)

	typeClass := "none"
	if n.NodeType != nil {
		typeClass = strings.ToLower(*n.NodeType)
	}

	fmt.Fprintf(b, `  <g class="node node-%s" id="node_%d" data-depth="%d">`+"\n", typeClass, n.ID, depth)
	fmt.Fprintf(b, `    <rect x="%g" y="%g" width="%g" height="%g" fill="%s" stroke="%s" stroke-width="2" rx="5"/>`+"\n",
		x, y, w, h, fill, stroke)
	fmt.Fprintf(b, `    <text x="%g" y="%g" fill="%s" font-size="%g" font-weight="bold">%s</text>`+"\n",
		x+10, y+20, titleColor, opts.TitleFontSize, html.EscapeString(n.Title))
	fmt.Fprintf(b, `    <line x1="%g" y1="%g" x2="%g" y2="%g" stroke="%s" stroke-width="1"/>`+"\n",
		x, y+diagram.TitleBarHeight, x+w, y+diagram.TitleBarHeight, stroke)

	if n.IsInitial {
		// White dot on the right of the title bar.
		fmt.Fprintf(b, `    <circle cx="%g" cy="%g" r="10" fill="white" stroke="#888" stroke-width="2"/>`+"\n",
			x+w-20, y+15)
	}

	for _, child := range r.children[n.ID] {
		r.nodeSVG(b, child, depth+1, opts)
	}
	b.WriteString("  </g>\n")
}

// svgElement renders the complete <svg> element for a document.
func (r *renderer) svgElement(opts SVGOptions) string {
	minX, minY, w, h := r.bounds(opts.Padding)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%g" height="%g" viewBox="%g %g %g %g" xmlns="http://www.w3.org/2000/svg">`+"\n",
		w, h, minX, minY, w, h)
	b.WriteString("  <defs>\n")
	b.WriteString(`    <marker id="arrowhead" markerWidth="10" markerHeight="10" refX="9" refY="3" orient="auto" markerUnits="strokeWidth">` + "\n")
	b.WriteString(`      <polygon points="0 0, 10 3, 0 6" fill="#aaddff"/>` + "\n")
	b.WriteString("    </marker>\n")
	b.WriteString("  </defs>\n")

	// Nodes first, edges last so paths draw on top.
	for _, root := range r.roots {
		r.nodeSVG(&b, root, 0, opts)
	}
	for i := range r.doc.Edges {
		r.edgeSVG(&b, &r.doc.Edges[i], opts)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

// GenerateSVG renders a design document's raw JSON to a standalone SVG
// element.
func GenerateSVG(data []byte, opts SVGOptions) (string, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return "", err
	}
	return svgFromDocument(doc, opts), nil
}

// SVGFromDiagram renders a live diagram without a JSON round trip.
func SVGFromDiagram(d *diagram.Diagram, opts SVGOptions) string {
	return svgFromDocument(encodeDocument(d), opts)
}

func svgFromDocument(doc *jsonDocument, opts SVGOptions) string {
	def := DefaultSVGOptions()
	if opts.Padding == 0 {
		opts.Padding = def.Padding
	}
	if opts.FontSize == 0 {
		opts.FontSize = def.FontSize
	}
	if opts.TitleFontSize == 0 {
		opts.TitleFontSize = def.TitleFontSize
	}
	return newRenderer(doc).svgElement(opts)
}
