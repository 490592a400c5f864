// Native PNG rendering for statechart documents.
// Mirrors the SVG renderer output using Go's image packages.

package diagfile

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/themodeller/modeller/pkg/diagram"
)

// PNGOptions configures PNG rendering.
type PNGOptions struct {
	Padding       float64
	FontSize      float64
	TitleFontSize float64
}

// DefaultPNGOptions returns sensible defaults for PNG rendering.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		Padding:       100,
		FontSize:      12,
		TitleFontSize: 14,
	}
}

// Colors used in rendering. These match the SVG palette.
var (
	colorBackground = color.RGBA{30, 30, 46, 255}    // #1e1e2e
	colorEdge       = color.RGBA{170, 221, 255, 255} // #aaddff
	colorEdgeLabel  = color.RGBA{221, 221, 221, 255} // #ddd
	colorInitialDot = color.RGBA{255, 255, 255, 255}
	colorInitialRim = color.RGBA{136, 136, 136, 255} // #888

	machineFill   = color.RGBA{58, 74, 90, 255}    // #3a4a5a
	machineStroke = color.RGBA{90, 122, 154, 255}  // #5a7a9a
	machineTitle  = color.RGBA{136, 204, 255, 255} // #88ccff
	stateFill     = color.RGBA{42, 58, 74, 255}    // #2a3a4a
	stateStroke   = color.RGBA{74, 106, 138, 255}  // #4a6a8a
	stateTitle    = color.RGBA{170, 221, 255, 255} // #aaddff
	plainFill     = color.RGBA{42, 42, 58, 255}    // #2a2a3a
	plainStroke   = color.RGBA{74, 74, 106, 255}   // #4a4a6a
	plainTitle    = color.RGBA{204, 204, 255, 255} // #ccccff
)

func nodeRGBA(nodeType *string) (fill, stroke, title color.RGBA) {
	if nodeType == nil {
		return plainFill, plainStroke, plainTitle
	}
	switch *nodeType {
	case "StateMachine":
		return machineFill, machineStroke, machineTitle
	case "State":
		return stateFill, stateStroke, stateTitle
	default:
		return plainFill, plainStroke, plainTitle
	}
}

// rasterContext holds rendering parameters including the supersample scale.
type rasterContext struct {
	img       *image.RGBA
	scale     float64
	lineWidth float64
	face      font.Face
	titleFace font.Face
	// offset from document coordinates to pixel coordinates
	originX float64
	originY float64
}

func newRasterContext(img *image.RGBA, scale int, opts PNGOptions, originX, originY float64) *rasterContext {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(err) // should never happen with embedded font
	}

	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    opts.FontSize * float64(scale),
		DPI:     72,
		Hinting: font.HintingNone, // no hinting, supersampling smooths instead
	})
	if err != nil {
		panic(err)
	}
	titleFace, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    opts.TitleFontSize * float64(scale),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		panic(err)
	}

	return &rasterContext{
		img:       img,
		scale:     float64(scale),
		lineWidth: float64(scale) * 2,
		face:      face,
		titleFace: titleFace,
		originX:   originX,
		originY:   originY,
	}
}

// px converts a document coordinate to pixel space.
func (ctx *rasterContext) px(x, y float64) (float64, float64) {
	return (x - ctx.originX) * ctx.scale, (y - ctx.originY) * ctx.scale
}

// RenderPNG renders a JSON document to PNG format.
// Uses 4x supersampling for smoother output.
func RenderPNG(data []byte, w io.Writer, opts PNGOptions) error {
	doc, err := decodeDocument(data)
	if err != nil {
		return err
	}
	return renderDocumentPNG(doc, w, opts)
}

// PNGFromDiagram renders a live diagram to PNG format.
func PNGFromDiagram(d *diagram.Diagram, w io.Writer, opts PNGOptions) error {
	doc := encodeDocument(d)
	return renderDocumentPNG(doc, w, opts)
}

func renderDocumentPNG(doc *jsonDocument, w io.Writer, opts PNGOptions) error {
	def := DefaultPNGOptions()
	if opts.Padding == 0 {
		opts.Padding = def.Padding
	}
	if opts.FontSize == 0 {
		opts.FontSize = def.FontSize
	}
	if opts.TitleFontSize == 0 {
		opts.TitleFontSize = def.TitleFontSize
	}

	r := newRenderer(doc)
	minX, minY, docW, docH := r.bounds(opts.Padding)

	outW := int(math.Ceil(docW))
	outH := int(math.Ceil(docH))
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	// Render at 4x size, then downsample with high-quality interpolation.
	scale := 4
	largeImg := image.NewRGBA(image.Rect(0, 0, outW*scale, outH*scale))
	ctx := newRasterContext(largeImg, scale, opts, minX, minY)

	draw.Draw(largeImg, largeImg.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	for _, root := range r.roots {
		r.nodePNG(ctx, root)
	}
	for i := range doc.Edges {
		r.edgePNG(ctx, &doc.Edges[i])
	}

	finalImg := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(finalImg, finalImg.Bounds(), largeImg, largeImg.Bounds(), draw.Over, nil)

	return png.Encode(w, finalImg)
}

func (r *renderer) nodePNG(ctx *rasterContext, n *jsonNode) {
	x, y := r.absPos(n)
	w, h := n.Rect.Width, n.Rect.Height
	fill, stroke, titleColor := nodeRGBA(n.NodeType)

	px, py := ctx.px(x, y)
	pw, ph := w*ctx.scale, h*ctx.scale

	fillRect(ctx, px, py, pw, ph, fill)
	strokeRect(ctx, px, py, pw, ph, stroke)

	// Title-bar separator.
	sepY := py + diagram.TitleBarHeight*ctx.scale
	drawLine(ctx, px, sepY, px+pw, sepY, stroke)

	tx, ty := ctx.px(x+10, y+20)
	drawText(ctx, ctx.titleFace, int(tx), int(ty), n.Title, titleColor)

	if n.IsInitial {
		cx, cy := ctx.px(x+w-20, y+15)
		fillCircle(ctx, cx, cy, 10*ctx.scale, colorInitialDot)
		strokeCircle(ctx, cx, cy, 10*ctx.scale, colorInitialRim)
	}

	for _, child := range r.children[n.ID] {
		r.nodePNG(ctx, child)
	}
}

func (r *renderer) edgePNG(ctx *rasterContext, e *jsonEdge) {
	start := r.byID[e.StartNodeID]
	end := r.byID[e.EndNodeID]
	if start == nil || end == nil {
		return
	}

	startCenter := r.absRect(start).Center()
	endCenter := r.absRect(end).Center()
	p0 := r.connectionPoint(start, e.StartOffset, endCenter)
	p1 := r.connectionPoint(end, e.EndOffset, startCenter)

	waypointX := p0.X + (p1.X-p0.X)*e.WaypointRatio

	relX := p1.X - endCenter.X
	relY := p1.Y - endCenter.Y
	normX, normY := 0.0, 0.0
	if end.Rect.Width > 0 {
		normX = math.Abs(relX) / (end.Rect.Width / 2)
	}
	if end.Rect.Height > 0 {
		normY = math.Abs(relY) / (end.Rect.Height / 2)
	}

	pts := []diagram.Point{
		p0,
		{X: waypointX, Y: p0.Y},
		{X: waypointX, Y: p1.Y},
	}
	if normX > normY || math.Abs(p1.X-waypointX) > 1 {
		pts = append(pts, p1)
	}

	for i := 1; i < len(pts); i++ {
		x1, y1 := ctx.px(pts[i-1].X, pts[i-1].Y)
		x2, y2 := ctx.px(pts[i].X, pts[i].Y)
		drawLine(ctx, x1, y1, x2, y2, colorEdge)
	}
	last := pts[len(pts)-1]
	prev := pts[len(pts)-2]
	if last == prev && len(pts) > 2 {
		prev = pts[len(pts)-3]
	}
	x1, y1 := ctx.px(prev.X, prev.Y)
	x2, y2 := ctx.px(last.X, last.Y)
	drawArrowHead(ctx, x1, y1, x2, y2, colorEdge)

	if e.Title == "" {
		return
	}

	// Same label placement rule as the SVG output: alongside the longest
	// of the three segments.
	seg1 := math.Abs(waypointX - p0.X)
	seg2 := math.Abs(p1.Y - p0.Y)
	seg3 := math.Abs(p1.X - waypointX)

	var labelX, labelY float64
	centered := true
	switch {
	case seg2 >= seg1 && seg2 >= seg3:
		labelX = waypointX + 15
		labelY = (p0.Y + p1.Y) / 2
		centered = false
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
			centered = false
		}
	}

	lx, ly := ctx.px(labelX, labelY)
	if centered {
		drawTextCentered(ctx, ctx.face, int(lx), int(ly), e.Title, colorEdgeLabel)
	} else {
		drawText(ctx, ctx.face, int(lx), int(ly), e.Title, colorEdgeLabel)
	}
}

func fillRect(ctx *rasterContext, x, y, w, h float64, c color.Color) {
	rect := image.Rect(int(x), int(y), int(x+w), int(y+h))
	draw.Draw(ctx.img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func strokeRect(ctx *rasterContext, x, y, w, h float64, c color.Color) {
	drawLine(ctx, x, y, x+w, y, c)
	drawLine(ctx, x+w, y, x+w, y+h, c)
	drawLine(ctx, x+w, y+h, x, y+h, c)
	drawLine(ctx, x, y+h, x, y, c)
}

func fillCircle(ctx *rasterContext, cx, cy, r float64, c color.Color) {
	img := ctx.img
	for dy := -r; dy <= r; dy++ {
		yNorm := dy / r
		if yNorm*yNorm <= 1 {
			xExtent := r * math.Sqrt(1-yNorm*yNorm)
			for dx := -xExtent; dx <= xExtent; dx++ {
				img.Set(int(cx+dx), int(cy+dy), c)
			}
		}
	}
}

func strokeCircle(ctx *rasterContext, cx, cy, r float64, c color.Color) {
	img := ctx.img
	thickness := ctx.lineWidth
	for angle := 0.0; angle < 2*math.Pi; angle += 0.005 {
		nx := math.Cos(angle)
		ny := math.Sin(angle)
		for t := -thickness / 2; t <= thickness/2; t += 0.5 {
			img.Set(int(cx+nx*(r+t)), int(cy+ny*(r+t)), c)
		}
	}
}

// drawLine draws a line between two points with thickness from context.
func drawLine(ctx *rasterContext, x1, y1, x2, y2 float64, c color.Color) {
	img := ctx.img
	thickness := ctx.lineWidth

	dx := x2 - x1
	dy := y2 - y1
	steps := math.Max(math.Abs(dx), math.Abs(dy))
	if steps < 1 {
		steps = 1
	}

	halfThick := thickness / 2

	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1 {
		for ty := -halfThick; ty <= halfThick; ty++ {
			for tx := -halfThick; tx <= halfThick; tx++ {
				img.Set(int(x1+tx), int(y1+ty), c)
			}
		}
		return
	}

	perpX := -dy / dist
	perpY := dx / dist

	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t

		for offset := -halfThick; offset <= halfThick; offset += 0.5 {
			img.Set(int(cx+perpX*offset), int(cy+perpY*offset), c)
		}
	}
}

// drawArrowHead draws a filled arrowhead at (x2, y2) pointing away from (x1, y1).
func drawArrowHead(ctx *rasterContext, x1, y1, x2, y2 float64, c color.Color) {
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1 {
		return
	}

	nx := dx / dist
	ny := dy / dist

	arrowLen := 8.0 * ctx.scale
	arrowWidth := 4.0 * ctx.scale

	ax1 := x2 - nx*arrowLen + ny*arrowWidth
	ay1 := y2 - ny*arrowLen - nx*arrowWidth
	ax2 := x2 - nx*arrowLen - ny*arrowWidth
	ay2 := y2 - ny*arrowLen + nx*arrowWidth

	drawLine(ctx, x2, y2, ax1, ay1, c)
	drawLine(ctx, x2, y2, ax2, ay2, c)
	for t := 0.0; t <= 1.0; t += 0.05 {
		mx := ax1 + (ax2-ax1)*t
		my := ay1 + (ay2-ay1)*t
		drawLine(ctx, x2, y2, mx, my, c)
	}
}

// drawText draws text with its baseline anchored at the given position.
func drawText(ctx *rasterContext, face font.Face, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  ctx.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// drawTextCentered draws text horizontally centered at the given position.
func drawTextCentered(ctx *rasterContext, face font.Face, x, y int, text string, c color.Color) {
	width := font.MeasureString(face, text).Ceil()
	drawText(ctx, face, x-width/2, y, text, c)
}
