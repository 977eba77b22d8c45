package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultExecTimeout = 5 * time.Second

// Substrings that disqualify a snippet before it reaches the interpreter.
// This is a denylist check, not a sandbox guarantee.
var unsafeSnippetMarkers = []string{
	"import os",
	"import sys",
	"__import__",
	"open(",
	"file(",
}

// ExecResult is the outcome of one sandboxed snippet run.
type ExecResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// ExecuteSnippet runs a short Python snippet in a subprocess with a timeout.
func ExecuteSnippet(ctx context.Context, code string, timeout time.Duration) ExecResult {
	lowered := strings.ToLower(code)
	for _, marker := range unsafeSnippetMarkers {
		if strings.Contains(lowered, marker) {
			return ExecResult{
				Output: fmt.Sprintf("Error: Potentially unsafe operation detected: %s", marker),
				Error:  "Security restriction",
			}
		}
	}

	if timeout <= 0 {
		timeout = defaultExecTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "python3", "-c", code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return ExecResult{Error: "Execution timeout"}
	}
	if err != nil {
		return ExecResult{
			Output: stdout.String(),
			Error:  strings.TrimSpace(stderr.String() + " " + err.Error()),
		}
	}
	return ExecResult{
		Success: true,
		Output:  stdout.String(),
	}
}
