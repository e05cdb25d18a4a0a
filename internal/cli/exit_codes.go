package cli

import (
	"github.com/docgov/docgov/internal/cli/shared"
)

// Exit codes for the docgov CLI (re-exported from shared)
const (
	// ExitSuccess indicates every check passed
	ExitSuccess = shared.ExitSuccess

	// ExitValidationFailed indicates findings failed the run
	ExitValidationFailed = shared.ExitValidationFailed

	// ExitInvalidInput indicates an unrecoverable setup error such as an
	// unreadable root or no documents
	ExitInvalidInput = shared.ExitInvalidInput
)

// NewExitError creates a new exit error with the given code (re-exported from shared).
func NewExitError(code int) error {
	return shared.NewExitError(code)
}

// ExitCode returns the exit code from an error (re-exported from shared).
func ExitCode(err error) int {
	return shared.ExitCode(err)
}

// IsExitError reports whether err only carries an exit code (re-exported from shared).
func IsExitError(err error) bool {
	return shared.IsExitError(err)
}
