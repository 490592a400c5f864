package diagfile

import (
	"fmt"
	"html"
	"strings"

	"github.com/themodeller/modeller/pkg/diagram"
)

// HTMLOptions configures the self-contained HTML export.
type HTMLOptions struct {
	Title string
	SVG   SVGOptions
}

// DefaultHTMLOptions returns standard export options.
func DefaultHTMLOptions() HTMLOptions {
	return HTMLOptions{
		Title: "Statechart Diagram",
		SVG:   DefaultSVGOptions(),
	}
}

// GenerateHTML renders a design document's raw JSON to a self-contained
// HTML page with the embedded SVG diagram, a legend, and a statistics
// panel.
func GenerateHTML(data []byte, opts HTMLOptions) (string, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return "", err
	}
	return htmlFromDocument(doc, opts), nil
}

// HTMLFromDiagram renders a live diagram without a JSON round trip.
func HTMLFromDiagram(d *diagram.Diagram, opts HTMLOptions) string {
	return htmlFromDocument(encodeDocument(d), opts)
}

func htmlFromDocument(doc *jsonDocument, opts HTMLOptions) string {
	if opts.Title == "" {
		opts.Title = DefaultHTMLOptions().Title
	}
	svg := svgFromDocument(doc, opts.SVG)

	stateMachines, states, containers, initials := 0, 0, 0, 0
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.NodeType != nil {
			switch *n.NodeType {
			case "StateMachine":
				stateMachines++
			case "State":
				states++
			}
		}
		if n.IsContainer {
			containers++
		}
		if n.IsInitial {
			initials++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
  font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
  background: linear-gradient(135deg, #1a1a2e 0%%, #16213e 100%%);
  color: #fff;
  padding: 20px;
  min-height: 100vh;
}
h1 { text-align: center; margin-bottom: 30px; color: #88ccff; }
.diagram-container {
  background: #0f1419;
  border-radius: 10px;
  padding: 20px;
  overflow: auto;
}
svg { display: block; margin: 0 auto; background: #1a1f26; border-radius: 5px; }
.node { cursor: pointer; }
.node:hover rect { filter: brightness(1.2); }
.edge:hover .edge-path { stroke: #ffaa44; stroke-width: 3; }
.edge:hover .edge-label { fill: #ffaa44; font-weight: bold; }
.info-panel {
  background: #1a2332;
  border-radius: 10px;
  padding: 20px;
  margin-top: 20px;
  border: 1px solid #3a4a5a;
}
.info-panel h2 { color: #88ccff; margin-bottom: 15px; font-size: 1.2em; }
.info-panel ul { list-style: none; }
.info-panel li { padding: 8px 0; border-bottom: 1px solid #2a3a4a; color: #aaddff; }
.info-panel li:last-child { border-bottom: none; }
.legend { display: flex; justify-content: center; gap: 30px; margin-top: 20px; flex-wrap: wrap; }
.legend-item { display: flex; align-items: center; gap: 10px; }
.legend-box { width: 30px; height: 20px; border-radius: 3px; border: 2px solid; }
.legend-statemachine { background: #3a4a5a; border-color: #5a7a9a; }
.legend-state { background: #2a3a4a; border-color: #4a6a8a; }
.legend-initial { width: 16px; height: 16px; border-radius: 50%%; background: white; border-color: #888; }
</style>
</head>
<body>
<h1>%s</h1>
<div class="diagram-container">
%s</div>
<div class="legend">
  <div class="legend-item"><div class="legend-box legend-statemachine"></div><span>State Machine</span></div>
  <div class="legend-item"><div class="legend-box legend-state"></div><span>State</span></div>
  <div class="legend-item"><div class="legend-box legend-initial"></div><span>Initial State</span></div>
</div>
<div class="info-panel">
  <h2>Diagram Statistics</h2>
  <ul>
    <li><strong>Total Nodes:</strong> %d</li>
    <li><strong>Total Transitions:</strong> %d</li>
    <li><strong>State Machines:</strong> %d</li>
    <li><strong>States:</strong> %d</li>
    <li><strong>Container States:</strong> %d</li>
    <li><strong>Initial States:</strong> %d</li>
  </ul>
</div>
</body>
</html>
`,
		html.EscapeString(opts.Title), html.EscapeString(opts.Title), svg,
		len(doc.Nodes), len(doc.Edges), stateMachines, states, containers, initials)

	return b.String()
}
