package cli

import "errors"

// Process exit codes.
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitConfigError = 2
	ExitInterrupted = 3
	ExitForced      = 130
)

// ExitError carries the process exit code for a command failure.
type ExitError struct {
	ExitCode int
	Reason   string
	Err      error
}

func (e *ExitError) Error() string {
	return e.Reason
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitError(code int, err error) *ExitError {
	return &ExitError{ExitCode: code, Reason: err.Error(), Err: err}
}

// ExitCodeFor maps a command error to an exit code: 0 for nil, the carried
// code for an *ExitError anywhere in the chain, ExitFailure otherwise.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode
	}
	return ExitFailure
}
