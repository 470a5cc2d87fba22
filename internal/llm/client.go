// Package llm is the single invocation surface for the external model
// process. The process returns output in several shapes (a bare value, a
// {"result": "..."} envelope, fenced code blocks); this package normalizes
// all of them before callers see anything.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Format selects the external process output mode.
type Format string

const (
	FormatJSON       Format = "json"
	FormatText       Format = "text"
	FormatStreamJSON Format = "stream-json"
)

// Result is the outcome of one model invocation.
type Result struct {
	OK     bool
	Output string
	Error  string
}

// Client wraps the external model binary. It holds no state beyond the
// runner handle; batching and caching are caller decisions.
type Client struct {
	runner Runner
	logger *slog.Logger
}

// New creates a client around the given runner.
func New(runner Runner, logger *slog.Logger) *Client {
	return &Client{runner: runner, logger: logger.With("component", "llm")}
}

// NewWithBinary creates a client that invokes the named binary.
func NewWithBinary(binary string, logger *slog.Logger) *Client {
	return New(&ExecRunner{Binary: binary}, logger)
}

// Run sends a prompt to the model and returns its raw output.
func (c *Client) Run(ctx context.Context, prompt string, format Format) Result {
	stdout, stderr, exitCode, err := c.runner.Run(ctx, []string{"-p", prompt, "--output-format", string(format)})
	if err != nil {
		c.logger.Warn("model invocation failed", "error", err)
		return Result{Error: err.Error()}
	}
	if exitCode != 0 {
		c.logger.Warn("model exited non-zero", "exit_code", exitCode, "stderr", strings.TrimSpace(stderr))
		return Result{Error: fmt.Sprintf("model exited with code %d: %s", exitCode, strings.TrimSpace(stderr))}
	}
	return Result{OK: true, Output: stdout}
}

// RunJSON sends a prompt in JSON mode and unmarshals the normalized payload
// into out. It returns false on any failure along the chain; it never
// panics and never surfaces an error to callers.
func (c *Client) RunJSON(ctx context.Context, prompt string, out any) bool {
	res := c.Run(ctx, prompt, FormatJSON)
	if !res.OK {
		return false
	}
	payload := Normalize(res.Output)
	if payload == "" {
		return false
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		c.logger.Warn("model returned unparseable JSON", "error", err)
		return false
	}
	return true
}

// Available reports whether the model binary responds to a cheap probe.
func (c *Client) Available(ctx context.Context) bool {
	_, _, exitCode, err := c.runner.Run(ctx, []string{"--version"})
	return err == nil && exitCode == 0
}

// Normalize reduces the raw process output to the inner payload: fences are
// stripped, a {"result": "..."} envelope is unwrapped (and the inner string
// de-fenced again), and the result is trimmed. Returns "" when nothing
// usable remains.
func Normalize(raw string) string {
	s := stripFences(strings.TrimSpace(raw))

	var envelope struct {
		Result *string `json:"result"`
	}
	if err := json.Unmarshal([]byte(s), &envelope); err == nil && envelope.Result != nil {
		s = stripFences(strings.TrimSpace(*envelope.Result))
	}
	return s
}

// stripFences removes a surrounding markdown code fence, tolerating an
// optional language tag after the opening backticks.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := s[3:]
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		// Drop the language tag line ("```json\n...").
		body = body[idx+1:]
	} else {
		return s
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
