// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/pmswitch/pmswitch/internal/config"
)

// syncBuffer is a bytes.Buffer safe for one writer goroutine and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the command tree with args and captures its output.
func runCLI(t *testing.T, deps Dependencies, stdin string, args ...string) cliResult {
	t.Helper()
	return runCLIContext(t.Context(), t, deps, stdin, args...)
}

func runCLIContext(ctx context.Context, t *testing.T, deps Dependencies, stdin string, args ...string) cliResult {
	t.Helper()

	var stdout, stderr syncBuffer
	deps.Stdin = strings.NewReader(stdin)
	deps.Stdout = &stdout
	deps.Stderr = &stderr

	root := NewRootCommand(NewCLI(deps))
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)

	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func staticConfig(mutate func(*config.Config)) Dependencies {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return Dependencies{Config: config.StaticProvider{Config: cfg}}
}
