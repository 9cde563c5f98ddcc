package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	reposvc "dgit/internal/services/repo"
)

func commitCmd(c *cli) *cobra.Command {
	var (
		message string
		stage   bool
	)
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Send each tracked file of the working directory",
		Long: "Send each tracked file (by default *.mo and *.rs) directly inside the\n" +
			"working directory as its own commit. Files matched by .dgitignore are\n" +
			"skipped. With --stage the commits are recorded locally for a later push.",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if stage {
				entries, err := c.wire.LocalRepo().Stage(message)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No tracked files to stage")
					return nil
				}
				fmt.Fprintf(out, "Staged %d file(s); run 'dgit push' to send them\n", len(entries))
				return nil
			}

			svc, err := c.wire.Repo()
			if err != nil {
				return err
			}
			res, err := svc.Commit(cmd.Context(), message)
			for _, p := range res.Succeeded {
				fmt.Fprintf(out, "Committed %s\n", p)
			}
			if res.Total() == 0 && err == nil {
				fmt.Fprintln(out, "No tracked files to commit")
				return nil
			}
			if res.Total() > 0 {
				fmt.Fprintf(out, "Committed %d of %d file(s)\n", len(res.Succeeded), res.Total())
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", reposvc.DefaultMessage, "commit message")
	cmd.Flags().BoolVar(&stage, "stage", false, "record the commits locally instead of sending them")
	return cmd
}
