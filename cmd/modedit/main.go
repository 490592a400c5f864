// Command modedit is a TUI editor for statechart designs.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/themodeller/modeller/pkg/diagfile"
	"github.com/themodeller/modeller/pkg/diagram"
)

// Config holds persistent editor settings.
type Config struct {
	LastDir    string `json:"last_dir"`
	PrettySave bool   `json:"pretty_save"`
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	cwd, _ := os.Getwd()
	return Config{
		LastDir:    cwd,
		PrettySave: true,
	}
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".modedit.json"
	}
	return filepath.Join(dir, "modedit", "config.json")
}

// LoadConfig loads configuration, falling back to defaults.
func LoadConfig() Config {
	cfg := DefaultConfig()
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig writes configuration to the config file.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Cell size in scene units. Terminal cells are roughly twice as tall as
// wide, so the vertical step is doubled to keep shapes proportional.
const (
	cellW = 10.0
	cellH = 20.0
)

// Mode represents editor mode.
type Mode int

const (
	ModeCanvas Mode = iota
	ModeInput
	ModeMove
	ModeResize
	ModeEdge
	ModeHelp
)

// MessageType for status messages.
type MessageType int

const (
	MsgInfo MessageType = iota
	MsgError
	MsgSuccess
)

// Editor holds all editor state.
type Editor struct {
	screen      tcell.Screen
	d           *diagram.Diagram
	filename    string
	modified    bool
	mode        Mode
	message     string
	messageType MessageType
	config      Config

	// Canvas state, in cell coordinates.
	cursorX int
	cursorY int
	offsetX int
	offsetY int

	selected     *diagram.Node
	selectedEdge *diagram.Edge

	// Gesture state.
	moveStart   diagram.Point
	resizeW     float64
	resizeH     float64
	pendingEdge *diagram.Edge

	// Input line state.
	inputPrompt string
	inputBuffer string
	inputDone   func(string)
}

func main() {
	ed := &Editor{
		d:      diagram.New(),
		config: LoadConfig(),
	}

	if len(os.Args) > 1 {
		ed.filename = os.Args[1]
		if err := ed.loadFile(ed.filename); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", ed.filename, err)
			os.Exit(1)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing screen: %v\n", err)
		os.Exit(1)
	}
	screen.EnableMouse()
	screen.Clear()

	ed.screen = screen
	ed.run()

	screen.Fini()
	SaveConfig(ed.config)
}

func (ed *Editor) run() {
	for {
		ed.draw()
		ed.screen.Show()

		ev := ed.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			ed.screen.Sync()
		case *tcell.EventKey:
			if ed.handleKey(ev) {
				return
			}
		case *tcell.EventMouse:
			ed.handleMouse(ev)
		}
	}
}

// cursorScene returns the cursor position in scene coordinates.
func (ed *Editor) cursorScene() diagram.Point {
	return diagram.Point{
		X: float64(ed.cursorX+ed.offsetX) * cellW,
		Y: float64(ed.cursorY+ed.offsetY) * cellH,
	}
}

func (ed *Editor) handleKey(ev *tcell.EventKey) bool {
	switch ed.mode {
	case ModeInput:
		return ed.handleInputKey(ev)
	case ModeMove:
		return ed.handleMoveKey(ev)
	case ModeResize:
		return ed.handleResizeKey(ev)
	case ModeEdge:
		return ed.handleEdgeKey(ev)
	case ModeHelp:
		ed.mode = ModeCanvas
		return false
	}
	return ed.handleCanvasKey(ev)
}

func (ed *Editor) handleCanvasKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlQ:
		return true
	case tcell.KeyCtrlS:
		ed.save()
		return false
	case tcell.KeyCtrlZ:
		ed.undo()
		return false
	case tcell.KeyCtrlY:
		ed.redo()
		return false
	case tcell.KeyLeft:
		ed.moveCursor(-1, 0)
		return false
	case tcell.KeyRight:
		ed.moveCursor(1, 0)
		return false
	case tcell.KeyUp:
		ed.moveCursor(0, -1)
		return false
	case tcell.KeyDown:
		ed.moveCursor(0, 1)
		return false
	case tcell.KeyTab:
		ed.cycleSelection()
		return false
	case tcell.KeyEnter:
		ed.selectAtCursor()
		return false
	case tcell.KeyEscape:
		ed.clearSelection()
		return false
	}

	switch ev.Rune() {
	case 'q':
		return true
	case 'n':
		ed.addNodeAtCursor()
	case 'c':
		ed.addChildNode()
	case 'd':
		ed.deleteSelected()
	case 'm':
		ed.startMove()
	case 'r':
		ed.startResize()
	case 'e':
		ed.startEdge()
	case 't':
		ed.startRetitle()
	case 'i':
		ed.toggleInitial()
	case 'y':
		ed.cycleType()
	case '[':
		ed.nudgeWaypoint(-0.1)
	case ']':
		ed.nudgeWaypoint(0.1)
	case 's':
		ed.save()
	case 'S':
		ed.saveAs()
	case 'o':
		ed.openFile()
	case 'u':
		ed.undo()
	case 'U':
		ed.redo()
	case 'h', '?':
		ed.mode = ModeHelp
	}
	return false
}

func (ed *Editor) moveCursor(dx, dy int) {
	ed.cursorX += dx
	ed.cursorY += dy
	w, h := ed.screen.Size()
	if ed.cursorX < 0 {
		ed.cursorX = 0
		ed.offsetX--
	}
	if ed.cursorY < 0 {
		ed.cursorY = 0
		ed.offsetY--
	}
	if ed.cursorX >= w {
		ed.cursorX = w - 1
		ed.offsetX++
	}
	if ed.cursorY >= h-2 {
		ed.cursorY = h - 3
		ed.offsetY++
	}
}

func (ed *Editor) handleMouse(ev *tcell.EventMouse) {
	if ev.Buttons()&tcell.Button1 == 0 {
		return
	}
	x, y := ev.Position()
	w, h := ed.screen.Size()
	if x >= w || y >= h-2 {
		return
	}
	ed.cursorX, ed.cursorY = x, y
	ed.selectAtCursor()
}

func (ed *Editor) selectAtCursor() {
	n := ed.d.NodeAt(ed.cursorScene())
	ed.clearSelection()
	if n != nil {
		ed.selected = n
		ed.d.SetSelected(n, true)
		ed.showMessage(fmt.Sprintf("Selected: %s", n.Title), MsgInfo)
	}
}

func (ed *Editor) clearSelection() {
	if ed.selected != nil {
		ed.d.SetSelected(ed.selected, false)
		ed.selected = nil
	}
	ed.selectedEdge = nil
}

func (ed *Editor) cycleSelection() {
	nodes := ed.d.Nodes()
	if len(nodes) == 0 {
		return
	}
	next := 0
	for i, n := range nodes {
		if n == ed.selected {
			next = (i + 1) % len(nodes)
			break
		}
	}
	ed.clearSelection()
	ed.selected = nodes[next]
	ed.d.SetSelected(ed.selected, true)
	ed.showMessage(fmt.Sprintf("Selected: %s", ed.selected.Title), MsgInfo)
}

func (ed *Editor) addNodeAtCursor() {
	n := ed.d.AddNode("", ed.cursorScene())
	ed.clearSelection()
	ed.selected = n
	ed.d.SetSelected(n, true)
	ed.modified = true
	ed.showMessage(fmt.Sprintf("Added %s", n.Title), MsgSuccess)
}

func (ed *Editor) addChildNode() {
	if ed.selected == nil {
		ed.showMessage("Select a parent node first", MsgError)
		return
	}
	parent := ed.selected
	child := ed.d.AddChildNode(parent, nil)
	ed.clearSelection()
	ed.selected = child
	ed.d.SetSelected(child, true)
	ed.modified = true
	ed.showMessage(fmt.Sprintf("Added %s inside %s", child.Title, parent.Title), MsgSuccess)
}

func (ed *Editor) deleteSelected() {
	if ed.selected == nil {
		ed.showMessage("Nothing selected", MsgError)
		return
	}
	title := ed.selected.Title
	n := ed.selected
	ed.clearSelection()
	ed.d.DeleteNode(n)
	ed.modified = true
	ed.showMessage(fmt.Sprintf("Deleted %s", title), MsgSuccess)
}

func (ed *Editor) startMove() {
	if ed.selected == nil {
		ed.showMessage("Select a node to move", MsgError)
		return
	}
	ed.moveStart = ed.selected.Pos
	ed.mode = ModeMove
	ed.showMessage("Move: arrows, Enter to commit, Esc to cancel", MsgInfo)
}

func (ed *Editor) handleMoveKey(ev *tcell.EventKey) bool {
	n := ed.selected
	switch ev.Key() {
	case tcell.KeyLeft:
		n.Pos.X -= cellW
	case tcell.KeyRight:
		n.Pos.X += cellW
	case tcell.KeyUp:
		n.Pos.Y -= cellH
	case tcell.KeyDown:
		n.Pos.Y += cellH
	case tcell.KeyEnter:
		final := n.Pos
		n.Pos = ed.moveStart
		ed.d.MoveNode(n, ed.moveStart, final)
		ed.modified = ed.modified || final != ed.moveStart
		ed.mode = ModeCanvas
		ed.showMessage("Moved", MsgSuccess)
	case tcell.KeyEscape:
		n.Pos = ed.moveStart
		ed.mode = ModeCanvas
		ed.showMessage("Move cancelled", MsgInfo)
	}
	return false
}

func (ed *Editor) startResize() {
	if ed.selected == nil {
		ed.showMessage("Select a node to resize", MsgError)
		return
	}
	ed.resizeW = ed.selected.Width
	ed.resizeH = ed.selected.Height
	ed.d.BeginResize(ed.selected)
	ed.mode = ModeResize
	ed.showMessage("Resize: arrows, Enter to commit, Esc to cancel", MsgInfo)
}

func (ed *Editor) handleResizeKey(ev *tcell.EventKey) bool {
	n := ed.selected
	switch ev.Key() {
	case tcell.KeyLeft:
		ed.d.ResizeLive(n, n.Width-cellW, n.Height)
	case tcell.KeyRight:
		ed.d.ResizeLive(n, n.Width+cellW, n.Height)
	case tcell.KeyUp:
		ed.d.ResizeLive(n, n.Width, n.Height-cellH)
	case tcell.KeyDown:
		ed.d.ResizeLive(n, n.Width, n.Height+cellH)
	case tcell.KeyEnter:
		ed.d.EndResize(n, ed.resizeW, ed.resizeH)
		ed.modified = ed.modified || n.Width != ed.resizeW || n.Height != ed.resizeH
		ed.mode = ModeCanvas
		ed.showMessage("Resized", MsgSuccess)
	case tcell.KeyEscape:
		ed.d.ResizeLive(n, ed.resizeW, ed.resizeH)
		ed.d.EndResize(n, ed.resizeW, ed.resizeH)
		ed.mode = ModeCanvas
		ed.showMessage("Resize cancelled", MsgInfo)
	}
	return false
}

func (ed *Editor) startEdge() {
	if ed.selected == nil {
		ed.showMessage("Select a source node first", MsgError)
		return
	}
	ed.pendingEdge = ed.d.StartEdge(ed.selected, ed.cursorScene())
	ed.mode = ModeEdge
	ed.showMessage("Edge: move to target, Enter to connect, Esc to discard", MsgInfo)
}

func (ed *Editor) handleEdgeKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyLeft:
		ed.moveCursor(-1, 0)
	case tcell.KeyRight:
		ed.moveCursor(1, 0)
	case tcell.KeyUp:
		ed.moveCursor(0, -1)
	case tcell.KeyDown:
		ed.moveCursor(0, 1)
	case tcell.KeyEnter:
		target := ed.d.NodeAt(ed.cursorScene())
		e := ed.d.CompleteEdge(ed.pendingEdge, target)
		ed.pendingEdge = nil
		ed.mode = ModeCanvas
		if e == nil {
			ed.showMessage("Edge discarded", MsgInfo)
		} else {
			ed.selectedEdge = e
			ed.modified = true
			ed.showMessage(fmt.Sprintf("Connected %s -> %s", e.StartNode().Title, e.EndNode().Title), MsgSuccess)
		}
	case tcell.KeyEscape:
		ed.d.CompleteEdge(ed.pendingEdge, nil)
		ed.pendingEdge = nil
		ed.mode = ModeCanvas
		ed.showMessage("Edge discarded", MsgInfo)
	}
	if ed.pendingEdge != nil {
		ed.pendingEdge.MoveFreeEnd(ed.cursorScene())
	}
	return false
}

func (ed *Editor) startRetitle() {
	if ed.selectedEdge != nil {
		e := ed.selectedEdge
		ed.prompt("Edge title: ", e.Title, func(s string) {
			ed.d.SetEdgeTitle(e, s)
			ed.modified = true
		})
		return
	}
	if ed.selected == nil {
		ed.showMessage("Nothing selected", MsgError)
		return
	}
	n := ed.selected
	ed.prompt("Title: ", n.Title, func(s string) {
		ed.d.SetNodeTitle(n, s)
		ed.modified = true
	})
}

func (ed *Editor) toggleInitial() {
	if ed.selected == nil {
		ed.showMessage("Nothing selected", MsgError)
		return
	}
	if ed.selected.Type != diagram.TypeState {
		ed.showMessage("Only states can be initial", MsgError)
		return
	}
	ed.d.SetNodeInitial(ed.selected, !ed.selected.IsInitial)
	ed.modified = true
	if ed.selected.IsInitial {
		ed.showMessage("Marked initial", MsgSuccess)
	} else {
		ed.showMessage("Cleared initial", MsgSuccess)
	}
}

func (ed *Editor) cycleType() {
	if ed.selected == nil {
		ed.showMessage("Nothing selected", MsgError)
		return
	}
	var next diagram.NodeType
	switch ed.selected.Type {
	case diagram.TypeNone:
		next = diagram.TypeStateMachine
	case diagram.TypeStateMachine:
		next = diagram.TypeState
	default:
		next = diagram.TypeStateMachine
	}
	ed.d.SetNodeType(ed.selected, next)
	ed.modified = true
	ed.showMessage(fmt.Sprintf("Type: %s", next), MsgSuccess)
}

func (ed *Editor) nudgeWaypoint(delta float64) {
	if ed.selectedEdge == nil {
		ed.showMessage("No edge selected", MsgError)
		return
	}
	e := ed.selectedEdge
	old := e.WaypointRatio
	ed.d.SetEdgeWaypoint(e, old, old+delta)
	ed.modified = true
	ed.showMessage(fmt.Sprintf("Waypoint ratio: %.1f", e.WaypointRatio), MsgInfo)
}

func (ed *Editor) undo() {
	if err := ed.d.History().Undo(); err != nil {
		if errors.Is(err, diagram.ErrNothingToUndo) {
			ed.showMessage("Nothing to undo", MsgInfo)
		} else {
			ed.showMessage(fmt.Sprintf("Undo failed: %v", err), MsgError)
		}
		return
	}
	ed.clearSelection()
	ed.modified = true
	ed.showMessage("Undone", MsgSuccess)
}

func (ed *Editor) redo() {
	if err := ed.d.History().Redo(); err != nil {
		if errors.Is(err, diagram.ErrNothingToRedo) {
			ed.showMessage("Nothing to redo", MsgInfo)
		} else {
			ed.showMessage(fmt.Sprintf("Redo failed: %v", err), MsgError)
		}
		return
	}
	ed.clearSelection()
	ed.modified = true
	ed.showMessage("Redone", MsgSuccess)
}

func (ed *Editor) prompt(label, initial string, done func(string)) {
	ed.inputPrompt = label
	ed.inputBuffer = initial
	ed.inputDone = done
	ed.mode = ModeInput
}

func (ed *Editor) handleInputKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEnter:
		done := ed.inputDone
		text := ed.inputBuffer
		ed.inputDone = nil
		ed.mode = ModeCanvas
		if done != nil {
			done(text)
		}
	case tcell.KeyEscape:
		ed.inputDone = nil
		ed.mode = ModeCanvas
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(ed.inputBuffer) > 0 {
			ed.inputBuffer = ed.inputBuffer[:len(ed.inputBuffer)-1]
		}
	case tcell.KeyRune:
		ed.inputBuffer += string(ev.Rune())
	}
	return false
}

func (ed *Editor) save() {
	if ed.filename == "" {
		ed.saveAs()
		return
	}
	if err := ed.saveFile(ed.filename); err != nil {
		ed.showMessage(fmt.Sprintf("Save failed: %v", err), MsgError)
		return
	}
	ed.modified = false
	ed.showMessage(fmt.Sprintf("Saved %s", ed.filename), MsgSuccess)
}

func (ed *Editor) saveAs() {
	ed.prompt("Save as: ", ed.filename, func(path string) {
		if path == "" {
			return
		}
		if err := ed.saveFile(path); err != nil {
			ed.showMessage(fmt.Sprintf("Save failed: %v", err), MsgError)
			return
		}
		ed.filename = path
		ed.config.LastDir = filepath.Dir(path)
		ed.modified = false
		ed.showMessage(fmt.Sprintf("Saved %s", path), MsgSuccess)
	})
}

func (ed *Editor) openFile() {
	ed.prompt("Open: ", ed.config.LastDir+string(filepath.Separator), func(path string) {
		if path == "" {
			return
		}
		if err := ed.loadFile(path); err != nil {
			ed.showMessage(fmt.Sprintf("Load failed: %v", err), MsgError)
			return
		}
		ed.filename = path
		ed.config.LastDir = filepath.Dir(path)
		ed.modified = false
		ed.clearSelection()
		ed.showMessage(fmt.Sprintf("Loaded %s", path), MsgSuccess)
	})
}

func (ed *Editor) saveFile(path string) error {
	if filepath.Ext(path) == ".smdz" {
		name := strings.TrimSuffix(filepath.Base(path), ".smdz")
		return diagfile.WriteDesignFile(path, ed.d, diagfile.DesignMeta{Name: name})
	}
	data, err := diagfile.ToDocumentJSON(ed.d, ed.config.PrettySave)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (ed *Editor) loadFile(path string) error {
	if filepath.Ext(path) == ".smdz" {
		d, _, err := diagfile.ReadDesignFile(path)
		if err != nil {
			return err
		}
		ed.d = d
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	d, err := diagfile.ParseDocument(data)
	if err != nil {
		return err
	}
	ed.d = d
	return nil
}

func (ed *Editor) showMessage(msg string, msgType MessageType) {
	ed.message = msg
	ed.messageType = msgType
}
