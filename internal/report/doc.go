// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - MarkdownWriter: Shareable Markdown report with tables and charts
//   - JSONWriter: Structured JSON output for tool integration
//   - FileWriter: Renders a run to files and hands the path back to the
//     analysis engine
//
// Design decision: We separate report writing from the run state
// (which lives in the model package) to follow the single responsibility
// principle. This allows adding new output formats without modifying
// the core data structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
