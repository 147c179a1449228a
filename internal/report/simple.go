package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/redditlens/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display after a run finishes.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary as plain text.
func (w *SimpleWriter) Write(state *model.RunState) (int, error) {
	var b strings.Builder

	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "Community Analysis: r/%s\n", state.Community)
	b.WriteString(strings.Repeat("=", 60) + "\n")

	fmt.Fprintf(&b, "Status:   %s\n", state.Status)
	if state.Failed() {
		fmt.Fprintf(&b, "Error:    %s\n", state.Err)
	}
	fmt.Fprintf(&b, "Posts:    %d\n", state.PostsCollected)
	fmt.Fprintf(&b, "Comments: %d\n", state.CommentsCollected)

	if summary := state.Analysis[model.SummaryKey]; summary != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Sentiment:          %s\n", asString(summary["sentiment"]))
		fmt.Fprintf(&b, "Pain points found:  %d\n", asInt(summary["pain_points_found"]))
		fmt.Fprintf(&b, "Tone formality:     %s\n", asString(summary["tone_formality"]))
		fmt.Fprintf(&b, "Promotion attitude: %s\n", asString(summary["promotion_attitude"]))
	}

	if state.ReportPath != "" {
		fmt.Fprintf(&b, "\nReport: %s\n", state.ReportPath)
	}

	if len(state.Errors) > 0 {
		fmt.Fprintf(&b, "\nDegraded branches: %d\n", len(state.Errors))
		if w.verbose {
			for _, msg := range state.Errors {
				fmt.Fprintf(&b, "  - %s\n", truncateString(msg, 120))
			}
		}
	}

	return io.WriteString(w.output, b.String())
}
