package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func statusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the remote repository status",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.wire.Repo()
			if err != nil {
				return err
			}
			st, err := svc.Status(cmd.Context())
			if err != nil {
				return err
			}
			printVerbatim(cmd.OutOrStdout(), st.String())
			return nil
		},
	}
}

// printVerbatim writes s unchanged, ending it with a newline if it lacks one.
func printVerbatim(w io.Writer, s string) {
	fmt.Fprint(w, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(w)
	}
}
