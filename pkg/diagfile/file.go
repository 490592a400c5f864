package diagfile

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/themodeller/modeller/pkg/diagram"
)

// DesignMeta contains the meta.json content of a design bundle.
type DesignMeta struct {
	Version     int    `json:"version"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	NodeCount   int    `json:"node_count"`
	EdgeCount   int    `json:"edge_count"`
}

// WriteDesignFile writes a diagram to a .smdz file.
func WriteDesignFile(path string, d *diagram.Diagram, meta DesignMeta) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteDesign(file, d, meta)
}

// WriteDesign writes a diagram to a writer in .smdz format: a zip archive
// holding design.json and meta.json.
func WriteDesign(w io.Writer, d *diagram.Diagram, meta DesignMeta) error {
	zw := zip.NewWriter(w)
	defer zw.Close()

	docJSON, err := ToDocumentJSON(d, true)
	if err != nil {
		return err
	}
	dw, err := zw.Create("design.json")
	if err != nil {
		return err
	}
	if _, err := dw.Write(docJSON); err != nil {
		return err
	}

	if meta.Version == 0 {
		meta.Version = 1
	}
	meta.NodeCount = len(d.Nodes())
	meta.EdgeCount = len(d.Edges())
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	mw, err := zw.Create("meta.json")
	if err != nil {
		return err
	}
	if _, err := mw.Write(metaJSON); err != nil {
		return err
	}

	return nil
}

// ReadDesignFile reads a diagram from a .smdz file.
func ReadDesignFile(path string) (*diagram.Diagram, *DesignMeta, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, nil, err
	}

	return ReadDesign(file, info.Size())
}

// ReadDesign reads a diagram from a reader containing .smdz format.
// meta.json is optional; a bundle without one returns a nil meta.
func ReadDesign(r io.ReaderAt, size int64) (*diagram.Diagram, *DesignMeta, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, nil, err
	}

	var designData, metaData []byte

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, nil, err
		}

		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, err
		}

		switch f.Name {
		case "design.json":
			designData = data
		case "meta.json":
			metaData = data
		}
	}

	if designData == nil {
		return nil, nil, fmt.Errorf("design.json not found in archive")
	}

	d, err := ParseDocument(designData)
	if err != nil {
		return nil, nil, err
	}

	var meta *DesignMeta
	if metaData != nil {
		meta = &DesignMeta{}
		if err := json.Unmarshal(metaData, meta); err != nil {
			return nil, nil, fmt.Errorf("invalid meta.json: %w", err)
		}
	}

	return d, meta, nil
}

// ReadDesignBytes reads a diagram from bytes in .smdz format.
func ReadDesignBytes(data []byte) (*diagram.Diagram, *DesignMeta, error) {
	r := bytes.NewReader(data)
	return ReadDesign(r, int64(len(data)))
}
