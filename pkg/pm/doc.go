// SPDX-License-Identifier: MPL-2.0

// Package pm rewrites package-manager invocations between npm, pnpm, yarn and bun.
//
// The translator is a small rule-based grammar. It recognizes two shapes of
// command line:
//
//   - runner invocations that execute a package without installing it
//     (npx, pnpx, pnpm dlx, bunx, yarn dlx), which are rewritten by swapping
//     the runner prefix and keeping the remainder byte-for-byte;
//   - verb invocations (npm, pnpm, yarn, bun followed by a subcommand), which
//     are rewritten through a per-pair subcommand table and a global-install
//     normalization step.
//
// Matching is syntactic. Commands are split on whitespace only; quoting,
// pipes, subshells and multiple commands per line are not understood.
//
// # Usage
//
//	out, ok := pm.Translate("npm install react", pm.PNPM)
//	// out == "pnpm add react", ok == true
//
//	_, ok = pm.Translate("pnpx create-next-app", pm.PNPM)
//	// ok == false: already in the target's runner form
package pm
