package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/redditlens/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// runDocument is the serialized shape of a finished run. The collected
// records stay out: they live in the database, and duplicating them makes
// the artifact unwieldy for large communities.
type runDocument struct {
	RunID             string                    `json:"run_id"`
	Community         string                    `json:"community"`
	Status            model.Status              `json:"status"`
	Error             string                    `json:"error,omitempty"`
	PostsCollected    int                       `json:"posts_collected"`
	CommentsCollected int                       `json:"comments_collected"`
	CommunityInfo     *model.CommunityInfo      `json:"community_info,omitempty"`
	Extraction        map[string]map[string]any `json:"extraction,omitempty"`
	Analysis          map[string]map[string]any `json:"analysis,omitempty"`
	Synthesis         map[string]any            `json:"synthesis,omitempty"`
	Errors            []string                  `json:"errors,omitempty"`
}

// Write outputs the run report as JSON.
func (w *JSONWriter) Write(state *model.RunState) (int, error) {
	doc := runDocument{
		RunID:             state.ID,
		Community:         state.Community,
		Status:            state.Status,
		Error:             state.Err,
		PostsCollected:    state.PostsCollected,
		CommentsCollected: state.CommentsCollected,
		CommunityInfo:     state.CommunityInfo,
		Extraction:        state.Extraction,
		Analysis:          state.Analysis,
		Synthesis:         state.Synthesis,
		Errors:            state.Errors,
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(doc, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run report: %w", err)
	}
	data = append(data, '\n')

	return w.output.Write(data)
}
