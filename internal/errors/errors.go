package errors

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitlog/internal/logger"
)

// Exit codes reported by the CLI. Temporary failures use sysexits' EX_TEMPFAIL.
const (
	ExitFailure   = 1
	ExitInvalid   = 2
	ExitNotFound  = 3
	ExitTransient = 75
)

// Kind names the category of err for logs and hints.
func Kind(err error) string {
	switch {
	case IsValidation(err):
		return "validation"
	case IsNotFound(err):
		return "not_found"
	case IsConflict(err):
		return "conflict"
	default:
		return "internal"
	}
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch Kind(err) {
	case "validation":
		return ExitInvalid
	case "not_found":
		return ExitNotFound
	case "conflict":
		return ExitTransient
	default:
		return ExitFailure
	}
}

// Format renders err for the terminal, with a hint for failures the user can act on.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	switch Kind(err) {
	case "not_found":
		msg += "\n  Run 'habitlog habit list' to see the habits you can use."
	case "conflict":
		msg += "\n  Another writer updated the same day. Run the command again."
	}
	return msg
}

// Fatal logs err, prints it to stderr and exits with ExitCode(err). A nil err is a no-op.
func Fatal(err error) {
	if err == nil {
		return
	}
	os.Exit(report(os.Stderr, err))
}

func report(w io.Writer, err error) int {
	code := ExitCode(err)
	logger.Error("command failed", "kind", Kind(err), "exit", code, "error", err)
	fmt.Fprintln(w, Format(err))
	return code
}
