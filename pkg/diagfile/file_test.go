package diagfile

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"testing"
)

func TestDesignBundleRoundTrip(t *testing.T) {
	d := buildSample(t)

	var buf bytes.Buffer
	meta := DesignMeta{Name: "traffic", Description: "signal controller"}
	if err := WriteDesign(&buf, d, meta); err != nil {
		t.Fatalf("WriteDesign: %v", err)
	}

	loaded, gotMeta, err := ReadDesignBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadDesignBytes: %v", err)
	}

	if len(loaded.Nodes()) != len(d.Nodes()) {
		t.Errorf("node count = %d, want %d", len(loaded.Nodes()), len(d.Nodes()))
	}
	if len(loaded.Edges()) != len(d.Edges()) {
		t.Errorf("edge count = %d, want %d", len(loaded.Edges()), len(d.Edges()))
	}

	if gotMeta == nil {
		t.Fatal("meta.json missing from bundle")
	}
	if gotMeta.Name != "traffic" {
		t.Errorf("meta name = %q, want traffic", gotMeta.Name)
	}
	if gotMeta.Version != 1 {
		t.Errorf("meta version = %d, want 1", gotMeta.Version)
	}
	if gotMeta.NodeCount != len(d.Nodes()) || gotMeta.EdgeCount != len(d.Edges()) {
		t.Errorf("meta counts = %d/%d, want %d/%d",
			gotMeta.NodeCount, gotMeta.EdgeCount, len(d.Nodes()), len(d.Edges()))
	}
}

func TestDesignBundleEntries(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDesign(&buf, buildSample(t), DesignMeta{}); err != nil {
		t.Fatalf("WriteDesign: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["design.json"] || !names["meta.json"] {
		t.Errorf("archive entries = %v, want design.json and meta.json", names)
	}
}

func TestDesignBundleFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.smdz")

	if err := WriteDesignFile(path, buildSample(t), DesignMeta{Name: "sample"}); err != nil {
		t.Fatalf("WriteDesignFile: %v", err)
	}
	loaded, meta, err := ReadDesignFile(path)
	if err != nil {
		t.Fatalf("ReadDesignFile: %v", err)
	}
	if loaded == nil || meta == nil || meta.Name != "sample" {
		t.Fatalf("bundle did not survive the file round trip: %+v", meta)
	}
}

func TestReadDesignMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("nothing here")); err != nil {
		t.Fatal(err)
	}
	zw.Close()

	if _, _, err := ReadDesignBytes(buf.Bytes()); err == nil {
		t.Fatal("expected error for archive without design.json")
	}
}

func TestReadDesignNotAnArchive(t *testing.T) {
	if _, _, err := ReadDesignBytes([]byte("plain text")); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}
