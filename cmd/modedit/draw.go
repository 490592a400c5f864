package main

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"

	"github.com/themodeller/modeller/pkg/diagram"
)

var (
	styleDefault  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	styleNode     = tcell.StyleDefault.Foreground(tcell.ColorLightSkyBlue).Background(tcell.ColorBlack)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorBlack).Bold(true)
	styleEdge     = tcell.StyleDefault.Foreground(tcell.ColorLightCyan).Background(tcell.ColorBlack)
	styleInitial  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack).Bold(true)
	styleCursor   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGray)
	styleError    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed)
	styleSuccess  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen)
)

func (ed *Editor) draw() {
	ed.screen.Clear()
	w, h := ed.screen.Size()

	ed.drawCanvas(w, h-2)
	ed.drawStatusBar(w, h)

	switch ed.mode {
	case ModeInput:
		ed.drawInputLine(w, h)
	case ModeHelp:
		ed.drawHelp(w, h)
	}
}

// sceneToCell converts scene coordinates to screen cells.
func (ed *Editor) sceneToCell(p diagram.Point) (int, int) {
	return int(p.X/cellW) - ed.offsetX, int(p.Y/cellH) - ed.offsetY
}

func (ed *Editor) drawCanvas(w, h int) {
	// Lower z first so overlapping nodes stack the way the scene does.
	nodes := append([]*diagram.Node(nil), ed.d.Nodes()...)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Z < nodes[j].Z })

	for _, n := range nodes {
		ed.drawNode(n, w, h)
	}
	for _, e := range ed.d.Edges() {
		ed.drawEdge(e, w, h)
	}
	if ed.pendingEdge != nil {
		ed.drawEdge(ed.pendingEdge, w, h)
		// Show where the edge would leave the source border.
		bp := diagram.BorderIntersection(ed.selected.SceneRect(), ed.cursorScene())
		bx, by := ed.sceneToCell(bp)
		if bx >= 0 && bx < w && by >= 0 && by < h {
			ed.screen.SetContent(bx, by, '*', nil, styleSelected)
		}
	}

	if ed.mode == ModeCanvas || ed.mode == ModeEdge {
		if ed.cursorX >= 0 && ed.cursorX < w && ed.cursorY >= 0 && ed.cursorY < h {
			r, _, _, _ := ed.screen.GetContent(ed.cursorX, ed.cursorY)
			if r == ' ' || r == 0 {
				r = '+'
			}
			ed.screen.SetContent(ed.cursorX, ed.cursorY, r, nil, styleCursor)
		}
	}
}

func (ed *Editor) drawNode(n *diagram.Node, w, h int) {
	r := n.SceneRect()
	x0, y0 := ed.sceneToCell(diagram.Point{X: r.X, Y: r.Y})
	x1, y1 := ed.sceneToCell(diagram.Point{X: r.X + r.W, Y: r.Y + r.H})
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	style := styleNode
	if n.Selected {
		style = styleSelected
	}

	ed.drawBox(x0, y0, x1-x0+1, y1-y0+1, w, h, style)

	// Title sits on the top border, with the initial marker beside it.
	title := n.Title
	if n.Type == diagram.TypeStateMachine {
		title = "[" + title + "]"
	}
	title = truncate(title, x1-x0-3)
	ed.drawClipped(x0+1, y0, title, w, h, style)
	if n.IsInitial {
		ed.drawClipped(x1-1, y0, "o", w, h, styleInitial)
	}
}

func (ed *Editor) drawEdge(e *diagram.Edge, w, h int) {
	path := e.Route()
	if len(path) < 2 {
		return
	}

	style := styleEdge
	if e == ed.selectedEdge {
		style = styleSelected
	}

	for i := 1; i < len(path); i++ {
		ed.drawSegment(path[i-1], path[i], w, h, style)
	}

	// Arrowhead from the last two distinct points.
	last := path[len(path)-1]
	prev := path[len(path)-2]
	for i := len(path) - 3; i >= 0 && prev == last; i-- {
		prev = path[i]
	}
	ax, ay := ed.sceneToCell(last)
	arrow := '>'
	switch {
	case last.X < prev.X:
		arrow = '<'
	case last.Y > prev.Y && last.X == prev.X:
		arrow = 'v'
	case last.Y < prev.Y && last.X == prev.X:
		arrow = '^'
	}
	if ax >= 0 && ax < w && ay >= 0 && ay < h {
		ed.screen.SetContent(ax, ay, arrow, nil, style)
	}

	if e.Title != "" {
		wp := e.WaypointPos()
		lx, ly := ed.sceneToCell(wp)
		ed.drawClipped(lx+1, ly, truncate(e.Title, 16), w, h, style)
	}
}

// drawSegment draws one run of an edge path. A free-ended segment may be
// diagonal; it renders as an L through the corner cell.
func (ed *Editor) drawSegment(a, b diagram.Point, w, h int, style tcell.Style) {
	x0, y0 := ed.sceneToCell(a)
	x1, y1 := ed.sceneToCell(b)

	if y0 != y1 && x0 != x1 {
		ed.drawSegment(a, diagram.Point{X: b.X, Y: a.Y}, w, h, style)
		ed.drawSegment(diagram.Point{X: b.X, Y: a.Y}, b, w, h, style)
		return
	}

	if y0 == y1 {
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		for x := x0; x <= x1; x++ {
			if x >= 0 && x < w && y0 >= 0 && y0 < h {
				ed.screen.SetContent(x, y0, '-', nil, style)
			}
		}
		return
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		if x0 >= 0 && x0 < w && y >= 0 && y < h {
			ed.screen.SetContent(x0, y, '|', nil, style)
		}
	}
}

func (ed *Editor) drawBox(x, y, bw, bh, w, h int, style tcell.Style) {
	for col := x; col < x+bw; col++ {
		for _, row := range []int{y, y + bh - 1} {
			if col >= 0 && col < w && row >= 0 && row < h {
				ch := '-'
				if col == x || col == x+bw-1 {
					ch = '+'
				}
				ed.screen.SetContent(col, row, ch, nil, style)
			}
		}
	}
	for row := y + 1; row < y+bh-1; row++ {
		for _, col := range []int{x, x + bw - 1} {
			if col >= 0 && col < w && row >= 0 && row < h {
				ed.screen.SetContent(col, row, '|', nil, style)
			}
		}
	}
}

func (ed *Editor) drawStatusBar(w, h int) {
	style := styleStatus
	switch ed.messageType {
	case MsgError:
		style = styleError
	case MsgSuccess:
		style = styleSuccess
	}

	name := ed.filename
	if name == "" {
		name = "(untitled)"
	}
	mod := ""
	if ed.modified {
		mod = " *"
	}
	left := fmt.Sprintf(" %s%s  %s", name, mod, ed.modeString())
	if ed.message != "" {
		left += "  " + ed.message
	}

	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, h-2, ' ', nil, style)
		ed.screen.SetContent(x, h-1, ' ', nil, styleStatus)
	}
	ed.drawClipped(0, h-2, truncate(left, w), w, h, style)
	ed.drawClipped(0, h-1, truncate(ed.helpString(), w), w, h, styleStatus)
}

func (ed *Editor) drawInputLine(w, h int) {
	line := ed.inputPrompt + ed.inputBuffer + "_"
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, h-1, ' ', nil, styleCursor)
	}
	ed.drawClipped(0, h-1, truncate(line, w), w, h, styleCursor)
}

func (ed *Editor) drawHelp(w, h int) {
	lines := []string{
		"modedit keys",
		"",
		"  arrows      move cursor        n  add node at cursor",
		"  Enter       select at cursor   c  add child to selection",
		"  Tab         cycle selection    d  delete selection",
		"  m           move node          r  resize node",
		"  e           draw edge          t  retitle node or edge",
		"  i           toggle initial     y  cycle node type",
		"  [ ]         nudge edge waypoint",
		"  u / U       undo / redo (also Ctrl+Z / Ctrl+Y)",
		"  s / S       save / save as     o  open file",
		"  q / Ctrl+Q  quit",
		"",
		"  any key closes this help",
	}

	bw := 0
	for _, l := range lines {
		if len(l) > bw {
			bw = len(l)
		}
	}
	bw += 4
	bh := len(lines) + 2
	x := (w - bw) / 2
	y := (h - bh) / 2

	for row := y; row < y+bh; row++ {
		for col := x; col < x+bw; col++ {
			if col >= 0 && col < w && row >= 0 && row < h {
				ed.screen.SetContent(col, row, ' ', nil, styleStatus)
			}
		}
	}
	for i, l := range lines {
		ed.drawClipped(x+2, y+1+i, l, w, h, styleStatus)
	}
}

func (ed *Editor) drawClipped(x, y int, s string, w, h int, style tcell.Style) {
	if y < 0 || y >= h {
		return
	}
	for i, r := range s {
		if x+i >= 0 && x+i < w {
			ed.screen.SetContent(x+i, y, r, nil, style)
		}
	}
}

func (ed *Editor) modeString() string {
	switch ed.mode {
	case ModeMove:
		return "[MOVE]"
	case ModeResize:
		return "[RESIZE]"
	case ModeEdge:
		return "[EDGE]"
	case ModeInput:
		return "[INPUT]"
	case ModeHelp:
		return "[HELP]"
	}
	return "[CANVAS]"
}

func (ed *Editor) helpString() string {
	return " n:node c:child e:edge m:move r:resize d:del t:title i:initial u:undo s:save ?:help q:quit"
}

func truncate(s string, maxLen int) string {
	if maxLen < 1 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
