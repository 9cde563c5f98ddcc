package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func whoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the principal and fingerprint of the local identity",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := c.wire.Whoami.Whoami()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Principal:   %s\n", info.Principal)
			fmt.Fprintf(out, "Fingerprint: %s\n", info.Fingerprint)
			fmt.Fprintf(out, "Public key:  %s\n", info.PublicKey)
			return nil
		},
	}
}
