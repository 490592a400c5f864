// Package fuzz provides fuzz testing for the design document readers.
// Run with: go test -fuzz=FuzzParseDocument -fuzztime=30s ./tests/fuzz/
package fuzz

import (
	"bytes"
	"testing"

	"github.com/themodeller/modeller/pkg/diagfile"
	"github.com/themodeller/modeller/pkg/diagram"
)

// FuzzParseDocument throws arbitrary bytes at the JSON document reader.
// Looking for panics; any input must either load or return an error.
func FuzzParseDocument(f *testing.F) {
	f.Add([]byte(`{"nodes": [], "edges": []}`))
	f.Add([]byte(`{"nodes": [{"id": 1, "title": "A", "pos": {"x": 0, "y": 0},
		"rect": {"width": 200, "height": 100}}], "edges": []}`))
	f.Add([]byte(`{"nodes": [
		{"id": 1, "title": "A", "pos": {"x": 0, "y": 0}, "rect": {"width": 200, "height": 100}},
		{"id": 2, "title": "B", "pos": {"x": 10, "y": 40}, "rect": {"width": 100, "height": 50}, "parent_id": 1}],
		"edges": [{"start_node_id": 1, "end_node_id": 2, "waypoint_ratio": 0.5}]}`))
	f.Add([]byte(``))
	f.Add([]byte(`{`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"nodes": [{"id": 1, "parent_id": 1}], "edges": []}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		d, err := diagfile.ParseDocument(data)
		if err != nil {
			return
		}
		// A loaded document must serialize and export without panics.
		out, err := diagfile.ToDocumentJSON(d, false)
		if err != nil {
			t.Fatalf("loaded document failed to serialize: %v", err)
		}
		if _, err := diagfile.GenerateSVG(out, diagfile.DefaultSVGOptions()); err != nil {
			t.Fatalf("round-tripped document failed to export: %v", err)
		}
	})
}

// FuzzReadDesign throws arbitrary bytes at the bundle reader.
func FuzzReadDesign(f *testing.F) {
	var seed bytes.Buffer
	d := diagram.New()
	d.AddNode("A", diagram.Point{X: 0, Y: 0})
	if err := diagfile.WriteDesign(&seed, d, diagfile.DesignMeta{Name: "seed"}); err != nil {
		f.Fatal(err)
	}
	f.Add(seed.Bytes())
	f.Add([]byte(``))
	f.Add([]byte(`PK`))
	f.Add([]byte(`not a zip archive`))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _, _ = diagfile.ReadDesignBytes(data)
	})
}
