package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// Output file names written by WriteFiles.
const (
	MarkdownFile = "report.md"
	CSVFile      = "scores.csv"
)

// WriteFiles writes the Markdown report and the score CSV into dir.
func WriteFiles(dir string, r *Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MarkdownFile), []byte(RenderMarkdown(r)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", MarkdownFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, CSVFile), []byte(RenderCSV(r.Miners)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", CSVFile, err)
	}
	return nil
}
