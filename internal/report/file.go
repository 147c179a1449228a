package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/redditlens/internal/model"
)

// FileWriter renders a finished run to files under the run's output
// directory and returns the path of the primary Markdown report. It is
// the writer the analysis engine hands its final state to.
type FileWriter struct {
	// writeJSON additionally writes the machine-readable run document.
	writeJSON bool

	// now supplies the filename timestamp; overridable for tests.
	now func() time.Time
}

// FileWriterOption configures a FileWriter.
type FileWriterOption func(*FileWriter)

// WithJSONArtifact controls whether the JSON run document is written
// alongside the Markdown report. Enabled by default.
func WithJSONArtifact(enabled bool) FileWriterOption {
	return func(w *FileWriter) {
		w.writeJSON = enabled
	}
}

// WithFileClock sets the clock used for report file names.
func WithFileClock(now func() time.Time) FileWriterOption {
	return func(w *FileWriter) {
		w.now = now
	}
}

// NewFileWriter creates a FileWriter.
func NewFileWriter(opts ...FileWriterOption) *FileWriter {
	w := &FileWriter{
		writeJSON: true,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the run to <output-dir>/<community>_<timestamp>.md (and
// .json) and returns the Markdown path.
func (w *FileWriter) Write(state *model.RunState) (string, error) {
	if err := os.MkdirAll(state.OutputDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	base := fmt.Sprintf("%s_%s", state.Community, w.now().UTC().Format("20060102_150405"))
	mdPath := filepath.Join(state.OutputDir, base+".md")

	if err := w.writeFile(mdPath, func(f *os.File) error {
		_, err := NewMarkdownWriter(f).Write(state)
		return err
	}); err != nil {
		return "", err
	}

	if w.writeJSON {
		jsonPath := filepath.Join(state.OutputDir, base+".json")
		if err := w.writeFile(jsonPath, func(f *os.File) error {
			_, err := NewJSONWriter(f, WithPrettyPrint()).Write(state)
			return err
		}); err != nil {
			return "", err
		}
	}

	return mdPath, nil
}

func (w *FileWriter) writeFile(path string, render func(*os.File) error) error {
	f, err := os.Create(path) //nolint:gosec // path is derived from the configured output dir
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}
	return nil
}
