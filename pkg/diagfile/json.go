// Package diagfile reads, writes, and exports diagram documents: the JSON
// design format, the zip design bundle, and the HTML/SVG/PNG exporters.
package diagfile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/themodeller/modeller/pkg/diagram"
)

// LoadError reports a document that failed validation or decoding. The
// in-memory design the caller holds is untouched when one is returned.
type LoadError struct {
	Violations []string
	Err        error
}

func (e *LoadError) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("invalid design document: %s", strings.Join(e.Violations, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("invalid design document: %v", e.Err)
	}
	return "invalid design document"
}

func (e *LoadError) Unwrap() error { return e.Err }

// jsonDocument is the wire form of a design.
type jsonDocument struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

type jsonNode struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Pos         jsonPoint `json:"pos"`
	Rect        jsonRect  `json:"rect"`
	NodeType    *string   `json:"node_type"`
	IsContainer bool      `json:"is_container"`
	IsInitial   bool      `json:"is_initial"`
	ParentID    *int      `json:"parent_id"`
}

type jsonEdge struct {
	StartNodeID   int        `json:"start_node_id"`
	EndNodeID     int        `json:"end_node_id"`
	Title         string     `json:"title"`
	WaypointRatio float64    `json:"waypoint_ratio"`
	StartOffset   *jsonPoint `json:"start_offset"`
	EndOffset     *jsonPoint `json:"end_offset"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ParseDocument validates and decodes a design document into a fresh
// diagram with an empty history. Malformed input yields a *LoadError.
func ParseDocument(data []byte) (*diagram.Diagram, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return buildDiagram(doc)
}

// decodeDocument runs schema validation then the structural decode.
func decodeDocument(data []byte) (*jsonDocument, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Err: err}
	}
	return &doc, nil
}

// buildDiagram resolves the wire form in two passes: nodes first, parent
// links and edges after, so references may point anywhere in the arrays.
func buildDiagram(doc *jsonDocument) (*diagram.Diagram, error) {
	d := diagram.New()

	byID := make(map[int]*diagram.Node, len(doc.Nodes))
	for _, jn := range doc.Nodes {
		if _, dup := byID[jn.ID]; dup {
			return nil, &LoadError{Violations: []string{
				fmt.Sprintf("duplicate node id %d", jn.ID)}}
		}
		n := diagram.NewNode(jn.Title, diagram.Point{X: jn.Pos.X, Y: jn.Pos.Y},
			jn.Rect.Width, jn.Rect.Height)
		if jn.NodeType != nil {
			n.Type = diagram.NodeType(*jn.NodeType)
		}
		n.Title = jn.Title
		n.IsContainer = jn.IsContainer
		if n.Type == diagram.TypeState {
			n.IsInitial = jn.IsInitial
		}
		byID[jn.ID] = n
		d.InsertNode(n)
	}

	parentOf := make(map[int]int)
	for _, jn := range doc.Nodes {
		if jn.ParentID != nil {
			parentOf[jn.ID] = *jn.ParentID
		}
	}
	for _, jn := range doc.Nodes {
		// Reject parent cycles before attaching; they would make the
		// scene-position walk loop forever.
		seen := map[int]bool{jn.ID: true}
		id, ok := parentOf[jn.ID]
		for ok {
			if seen[id] {
				return nil, &LoadError{Violations: []string{
					fmt.Sprintf("node %d is part of a parent cycle", jn.ID)}}
			}
			seen[id] = true
			id, ok = parentOf[id]
		}
	}

	for _, jn := range doc.Nodes {
		if jn.ParentID == nil {
			continue
		}
		parent, ok := byID[*jn.ParentID]
		if !ok {
			return nil, &LoadError{Violations: []string{
				fmt.Sprintf("node %d references unknown parent %d", jn.ID, *jn.ParentID)}}
		}
		d.Attach(byID[jn.ID], parent)
	}

	for i, je := range doc.Edges {
		from, ok := byID[je.StartNodeID]
		if !ok {
			return nil, &LoadError{Violations: []string{
				fmt.Sprintf("edge %d references unknown start node %d", i, je.StartNodeID)}}
		}
		to, ok := byID[je.EndNodeID]
		if !ok {
			return nil, &LoadError{Violations: []string{
				fmt.Sprintf("edge %d references unknown end node %d", i, je.EndNodeID)}}
		}
		e := diagram.NewEdge(from, to)
		e.Title = je.Title
		e.WaypointRatio = je.WaypointRatio
		if je.StartOffset != nil {
			e.SetStartOffset(&diagram.Point{X: je.StartOffset.X, Y: je.StartOffset.Y})
		}
		if je.EndOffset != nil {
			e.SetEndOffset(&diagram.Point{X: je.EndOffset.X, Y: je.EndOffset.Y})
		}
		d.InsertEdge(e)
	}

	return d, nil
}

// ToDocumentJSON serializes a diagram to the design document format,
// assigning synthetic sequential ids.
func ToDocumentJSON(d *diagram.Diagram, pretty bool) ([]byte, error) {
	doc := encodeDocument(d)
	if pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

func encodeDocument(d *diagram.Diagram) *jsonDocument {
	doc := &jsonDocument{
		Nodes: []jsonNode{},
		Edges: []jsonEdge{},
	}

	ids := make(map[*diagram.Node]int, len(d.Nodes()))
	for i, n := range d.Nodes() {
		ids[n] = i + 1
	}

	for _, n := range d.Nodes() {
		jn := jsonNode{
			ID:          ids[n],
			Title:       n.Title,
			Pos:         jsonPoint{n.Pos.X, n.Pos.Y},
			Rect:        jsonRect{0, 0, n.Width, n.Height},
			IsContainer: n.IsContainer,
			IsInitial:   n.IsInitial,
		}
		if n.Type != diagram.TypeNone {
			t := string(n.Type)
			jn.NodeType = &t
		}
		if p := n.Parent(); p != nil {
			id := ids[p]
			jn.ParentID = &id
		}
		doc.Nodes = append(doc.Nodes, jn)
	}

	for _, e := range d.Edges() {
		je := jsonEdge{
			StartNodeID:   ids[e.StartNode()],
			EndNodeID:     ids[e.EndNode()],
			Title:         e.Title,
			WaypointRatio: e.WaypointRatio,
		}
		if off := e.StartOffset(); off != nil {
			je.StartOffset = &jsonPoint{off.X, off.Y}
		}
		if off := e.EndOffset(); off != nil {
			je.EndOffset = &jsonPoint{off.X, off.Y}
		}
		doc.Edges = append(doc.Edges, je)
	}

	return doc
}
