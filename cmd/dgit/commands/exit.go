package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dgit/internal/domain"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitGeneric     = 1
	ExitUsage       = 2
	ExitConfig      = 3
	ExitIdentity    = 4
	ExitUnavailable = 5
	ExitRejected    = 6
	ExitNotFound    = 7
)

// usageError marks an error in how the command was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue):
		return ExitUsage
	case errors.Is(err, domain.ErrConfigMissing):
		return ExitConfig
	case errors.Is(err, domain.ErrCorruptIdentity):
		return ExitIdentity
	case errors.Is(err, domain.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return ExitUnavailable
	case errors.Is(err, domain.ErrRemoteRejected):
		return ExitRejected
	default:
		return ExitGeneric
	}
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError{fmt.Errorf("%s: accepts %d arg(s), received %d", cmd.CommandPath(), n, len(args))}
		}
		return nil
	}
}

var noArgs = exactArgs(0)

// subcommandArgs rejects positional arguments that name no subcommand.
func subcommandArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	msg := fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath())
	if s := cmd.SuggestionsFor(args[0]); len(s) > 0 {
		msg += "; did you mean " + strings.Join(s, " or ") + "?"
	}
	return usageError{errors.New(msg)}
}
