package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"dgit/internal/domain"
)

func cloneCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clone <repoId>",
		Short: "Copy every file of a repository into dgit-repo-<repoId>/",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.wire.Repo()
			if err != nil {
				return err
			}
			res, err := svc.Clone(cmd.Context(), domain.RepositoryID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Repository %s cloned to %s\n", args[0], res.Dir)
			return nil
		},
	}
}
