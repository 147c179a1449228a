package analyze

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/nao1215/redditlens/internal/model"
)

// CLI defaults.
const (
	// DefaultBinary is the model CLI invoked for analysis.
	DefaultBinary = "claude"

	// DefaultCategoryTimeout bounds one category's CLI call.
	DefaultCategoryTimeout = 5 * time.Minute
)

// runFunc executes a prompt and returns the raw model output. Extracted
// so tests can substitute the CLI call.
type runFunc func(ctx context.Context, prompt string) (string, error)

// CLICapability analyzes categories by shelling out to a model CLI. The
// CLI carries its own authentication, so no credentials appear here.
type CLICapability struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
	run     runFunc
}

// CLIOption configures a CLICapability.
type CLIOption func(*CLICapability)

// WithBinary sets the CLI binary name.
func WithBinary(name string) CLIOption {
	return func(c *CLICapability) {
		if name != "" {
			c.binary = name
		}
	}
}

// WithCategoryTimeout bounds each category's CLI call.
func WithCategoryTimeout(d time.Duration) CLIOption {
	return func(c *CLICapability) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) CLIOption {
	return func(c *CLICapability) {
		c.logger = logger
	}
}

// withRunFunc substitutes the CLI invocation. Test hook.
func withRunFunc(run runFunc) CLIOption {
	return func(c *CLICapability) {
		c.run = run
	}
}

// NewCLICapability creates a capability backed by a model CLI.
func NewCLICapability(opts ...CLIOption) *CLICapability {
	c := &CLICapability{
		binary:  DefaultBinary,
		timeout: DefaultCategoryTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.run == nil {
		c.run = c.runCLI
	}

	return c
}

// Analyze renders the category prompt, runs the CLI, and parses the
// output. All failures are reported through the Result.
func (c *CLICapability) Analyze(ctx context.Context, category string, bundle Bundle) Result {
	prompt, err := buildPrompt(category, bundle)
	if err != nil {
		return Result{Err: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.run(ctx, prompt)
	if err != nil {
		c.logger.Warn("analysis category failed",
			"category", category,
			"elapsed", time.Since(start),
			"error", err,
		)
		return Result{Raw: raw, Err: err.Error()}
	}

	c.logger.Debug("analysis category completed",
		"category", category,
		"elapsed", time.Since(start),
	)

	// The report category produces Markdown, not JSON.
	if category == model.SynthesisReport {
		if strings.TrimSpace(raw) == "" {
			return Result{Raw: raw, Err: "empty report output"}
		}
		return Result{
			Success: true,
			Data:    map[string]any{"markdown": raw},
			Raw:     raw,
		}
	}

	data, err := ExtractJSON(raw)
	if err != nil {
		return Result{Raw: raw, Err: err.Error()}
	}

	return Result{Success: true, Data: data, Raw: raw}
}

// runCLI invokes the model CLI in non-interactive mode with the prompt.
func (c *CLICapability) runCLI(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, c.binary, "-p", prompt, "--output-format", "text")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("analyze: running %s: %w: %s",
			c.binary, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}
