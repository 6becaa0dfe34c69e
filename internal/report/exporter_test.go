package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(filepath.Join(dir, "reports"), "digest")

	path, err := e.ExportJSON(&Report{GeneratedAt: time.Now().UTC()})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(filepath.Base(path), "digest_") || !strings.HasSuffix(path, ".json") {
		t.Errorf("unexpected filename %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("exported file is not valid JSON: %v", err)
	}
	if _, ok := decoded["generated_at"]; !ok {
		t.Errorf("missing generated_at key")
	}
}

func TestExportMarkdown(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, "digest")

	path, err := e.ExportMarkdown("# Project Status Report\n")
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Project Status Report\n" {
		t.Errorf("content round-trip failed: %q", data)
	}
}
