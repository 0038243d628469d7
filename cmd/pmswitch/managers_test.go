// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"

	"github.com/pmswitch/pmswitch/internal/config"
	"github.com/pmswitch/pmswitch/pkg/pm"
)

func TestManagers(t *testing.T) {
	t.Parallel()

	deps := staticConfig(func(c *config.Config) { c.PreferredManager = pm.Yarn })
	res := runCLI(t, deps, "", "managers")
	if res.err != nil {
		t.Fatalf("managers failed: %v", res.err)
	}

	for _, want := range []string{"npm", "pnpm", "yarn", "bun", "npx", "yarn global add", "bun add -g"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("managers output is missing %q:\n%s", want, res.stdout)
		}
	}

	var yarnLine string
	for line := range strings.SplitSeq(res.stdout, "\n") {
		if strings.Contains(line, "yarn global add") {
			yarnLine = line
		}
	}
	if !strings.Contains(yarnLine, "✓") {
		t.Errorf("preferred manager row should be marked, got %q", yarnLine)
	}
	if strings.Count(res.stdout, "✓") != 1 {
		t.Errorf("exactly one row should be marked:\n%s", res.stdout)
	}
}
