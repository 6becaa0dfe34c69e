package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Exporter struct {
	OutputDir string
	Prefix    string
}

func NewExporter(outputDir, prefix string) *Exporter {
	return &Exporter{OutputDir: outputDir, Prefix: prefix}
}

func (e *Exporter) filename(ext string) string {
	timestamp := time.Now().Format("20060102_150405")
	return filepath.Join(e.OutputDir, fmt.Sprintf("%s_%s.%s", e.Prefix, timestamp, ext))
}

// ExportJSON writes the complete, untruncated report document.
func (e *Exporter) ExportJSON(rep *Report) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	path := e.filename("json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ExportMarkdown writes the rendered Markdown document.
func (e *Exporter) ExportMarkdown(content string) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := e.filename("md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
