// SPDX-License-Identifier: MPL-2.0

package pm

import (
	"slices"
	"strings"
)

const (
	// KindRunner marks a runner-prefix swap (npx -> pnpx, ...).
	KindRunner Kind = "runner"
	// KindVerb marks a verb rewrite through the subcommand table.
	KindVerb Kind = "verb"
	// KindScript marks a yarn script shorthand expanded to "<pm> run <script>".
	KindScript Kind = "script"
	// KindGlobal marks a global install rewritten to the target's idiomatic form.
	KindGlobal Kind = "global"
)

type (
	// Kind classifies which rule produced a rewrite.
	Kind string

	// Result describes a successful rewrite.
	Result struct {
		// Original is the trimmed input command.
		Original string
		// Command is the rewritten command.
		Command string
		// From is the manager that owned the original command.
		From Manager
		// To is the target manager.
		To Manager
		// Kind is the rule class that produced Command.
		Kind Kind
	}

	runner struct {
		prefix string
		owner  Manager
	}
)

// runners are tested in order; the first prefix whose owner differs from the
// target wins.
var runners = []runner{
	{prefix: "npx ", owner: NPM},
	{prefix: "pnpx ", owner: PNPM},
	{prefix: "pnpm dlx ", owner: PNPM},
	{prefix: "bunx ", owner: Bun},
	{prefix: "yarn dlx ", owner: Yarn},
}

var (
	// fromNPM applies when npm is the source and another known manager the target.
	fromNPM = map[string]string{
		"install":   "add",
		"i":         "add",
		"uninstall": "remove",
	}

	// toNPM applies when pnpm, yarn or bun is the source and npm the target.
	toNPM = map[string]string{
		"add":    "install",
		"remove": "uninstall",
	}

	// yarnBuiltins are the yarn subcommands that are not script names.
	yarnBuiltins = []string{"add", "remove", "install", "uninstall"}
)

// Translate rewrites command into target's syntax. It returns false when the
// command is not a recognized invocation or is already expressed for target.
func Translate(command string, target Manager) (string, bool) {
	res, ok := Explain(command, target)
	if !ok {
		return "", false
	}
	return res.Command, true
}

// Explain is Translate with the source manager and rule class reported.
// Runner prefixes take priority over verbs.
func Explain(command string, target Manager) (Result, bool) {
	cmd := strings.TrimSpace(command)

	if res, ok := translateRunner(cmd, target); ok {
		return res, true
	}
	if res, ok := translateVerb(cmd, target); ok {
		return res, true
	}
	return Result{}, false
}

func translateRunner(cmd string, target Manager) (Result, bool) {
	for _, r := range runners {
		if !strings.HasPrefix(cmd, r.prefix) || r.owner == target {
			continue
		}
		return Result{
			Original: cmd,
			Command:  target.RunnerPrefix() + cmd[len(r.prefix):],
			From:     r.owner,
			To:       target,
			Kind:     KindRunner,
		}, true
	}
	return Result{}, false
}

func translateVerb(cmd string, target Manager) (Result, bool) {
	for _, m := range Managers() {
		if !strings.HasPrefix(cmd, string(m)+" ") || m == target {
			continue
		}
		return rewrite(cmd, m, target)
	}
	return Result{}, false
}

// rewrite translates a verb invocation owned by from into to's syntax.
// It does not check that from actually prefixes cmd.
func rewrite(cmd string, from, to Manager) (Result, bool) {
	fields := strings.Fields(cmd)
	if len(fields) < 2 {
		return Result{}, false
	}

	sub := fields[1]
	args := strings.Join(fields[2:], " ")
	res := Result{Original: cmd, From: from, To: to, Kind: KindVerb}

	translated, ok := lookupSubcommand(from, to, sub)
	if !ok {
		// yarn runs scripts without "run"; the other managers need it.
		if to != Yarn {
			res.Command = join(string(to)+" run "+sub, args)
			res.Kind = KindScript
			return res, true
		}
		translated = sub
	}

	if strings.Contains(args, "-g") || strings.Contains(args, "--global") {
		// "--global" goes first: stripping "-g" first would leave "-lobal".
		clean := strings.ReplaceAll(args, "--global", "")
		clean = strings.TrimSpace(strings.ReplaceAll(clean, "-g", ""))
		if form, known := globalInstall(to); known {
			res.Command = join(form, clean)
			res.Kind = KindGlobal
			return res, true
		}
	}

	res.Command = join(string(to)+" "+translated, args)
	return res, true
}

// lookupSubcommand returns the target subcommand for sub. ok is false only for
// the yarn script class, where the caller decides the shape of the result.
func lookupSubcommand(from, to Manager, sub string) (string, bool) {
	switch {
	case from == NPM && to.IsKnown() && to != NPM:
		if t, found := fromNPM[sub]; found {
			return t, true
		}
	case from != NPM && from.IsKnown() && to == NPM:
		if t, found := toNPM[sub]; found {
			return t, true
		}
	}

	if from == Yarn && !slices.Contains(yarnBuiltins, sub) {
		return "", false
	}
	return sub, true
}

// globalInstall returns the idiomatic global-install prefix for to.
func globalInstall(to Manager) (string, bool) {
	switch to {
	case NPM:
		return "npm install -g", true
	case PNPM:
		return "pnpm add -g", true
	case Yarn:
		return "yarn global add", true
	case Bun:
		return "bun add -g", true
	default:
		return "", false
	}
}

func join(head, args string) string {
	if args == "" {
		return head
	}
	return head + " " + args
}
