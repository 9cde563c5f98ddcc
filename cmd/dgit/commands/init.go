package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new remote repository",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.wire.Repo()
			if err != nil {
				return err
			}
			id, err := svc.Init(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Repository initialized with ID: %s\n", id)
			return nil
		},
	}
}
