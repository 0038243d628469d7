// SPDX-License-Identifier: MPL-2.0

package pm

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// NPM is the npm package manager (runner: npx).
	NPM Manager = "npm"
	// PNPM is the pnpm package manager (runner: pnpx, also pnpm dlx).
	PNPM Manager = "pnpm"
	// Yarn is the yarn package manager (runner: yarn dlx).
	Yarn Manager = "yarn"
	// Bun is the bun package manager (runner: bunx).
	Bun Manager = "bun"
)

// ErrUnknownManager is returned when a Manager value is not one of the known package managers.
var ErrUnknownManager = errors.New("unknown package manager")

type (
	// Manager names a package manager. Only NPM, PNPM, Yarn and Bun are known;
	// any other value is representable but never matches a source command.
	Manager string

	// UnknownManagerError is returned when a Manager value is not recognized.
	// It wraps ErrUnknownManager for errors.Is() compatibility.
	UnknownManagerError struct {
		Value Manager
	}
)

// Managers returns the known package managers in display order.
func Managers() []Manager {
	return []Manager{NPM, PNPM, Yarn, Bun}
}

// Parse converts s into a known Manager. Surrounding whitespace is ignored;
// matching is case-sensitive.
func Parse(s string) (Manager, error) {
	m := Manager(strings.TrimSpace(s))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Error implements the error interface for UnknownManagerError.
func (e *UnknownManagerError) Error() string {
	return fmt.Sprintf("unknown package manager %q (valid: npm, pnpm, yarn, bun)", string(e.Value))
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *UnknownManagerError) Unwrap() error {
	return ErrUnknownManager
}

// String returns the manager name.
func (m Manager) String() string {
	return string(m)
}

// Validate returns nil if the Manager is one of the known package managers,
// or an error wrapping ErrUnknownManager if it is not.
func (m Manager) Validate() error {
	switch m {
	case NPM, PNPM, Yarn, Bun:
		return nil
	default:
		return &UnknownManagerError{Value: m}
	}
}

// IsKnown reports whether m is one of the four known package managers.
func (m Manager) IsKnown() bool {
	return m.Validate() == nil
}

// RunnerPrefix returns the one-shot runner prefix for m, including the
// trailing space. Unknown managers fall back to the npm form.
func (m Manager) RunnerPrefix() string {
	switch m {
	case PNPM:
		return "pnpx "
	case Bun:
		return "bunx "
	case Yarn:
		return "yarn dlx "
	default:
		return "npx "
	}
}

// GlobalInstall returns m's global install form, e.g. "yarn global add", or
// "" for an unknown manager.
func (m Manager) GlobalInstall() string {
	form, _ := globalInstall(m)
	return form
}
