package commands

import (
	"errors"
	"fmt"
	"io"

	"taskman/internal/config"
	"taskman/internal/exitcode"
)

// report prints err in the CLI's error format and returns its exit code.
func report(errOut io.Writer, err error) int {
	code := exitcode.FromError(err)
	if errors.Is(err, ErrTaskRefRequired) || errors.Is(err, ErrTaskOutOfRange) {
		code = exitcode.UserError
	}
	switch code {
	case exitcode.Success:
	case exitcode.AuthError:
		fmt.Fprintf(errOut, "error: session expired (run: %s login)\n", config.AppName)
	case exitcode.BackendError:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return code
}

// ok prints the success acknowledgement unless quiet.
func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
