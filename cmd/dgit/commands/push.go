package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func pushCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Send commits staged with 'commit --stage'",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			staged, err := c.wire.Staging.Staged()
			if err != nil {
				return err
			}
			if len(staged) == 0 {
				fmt.Fprintln(out, "Nothing to push")
				return nil
			}

			svc, err := c.wire.Repo()
			if err != nil {
				return err
			}
			res, err := svc.Push(cmd.Context())
			for _, p := range res.Succeeded {
				fmt.Fprintf(out, "Pushed %s\n", p)
			}
			fmt.Fprintf(out, "Pushed %d of %d staged commit(s)\n", len(res.Succeeded), len(staged))
			if len(res.Failed) > 0 {
				fmt.Fprintf(out, "%d commit(s) remain staged\n", len(res.Failed))
			}
			return err
		},
	}
}
