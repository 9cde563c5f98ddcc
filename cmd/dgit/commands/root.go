package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"dgit/internal/app"
)

// cli holds flag values and the dependency graph for one invocation.
type cli struct {
	workDir    string
	host       string
	canister   string
	identity   string
	passphrase string
	timeout    time.Duration
	logLevel   string
	logFile    string

	wire *app.Wire
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	c := &cli{}
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "dgit: internal error: %v\n", r)
			code = ExitGeneric
		}
	}()

	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.wire != nil {
		_ = c.wire.Close()
	}
	if err != nil {
		fmt.Fprintf(stderr, "dgit: %v\n", err)
		return exitCode(err)
	}
	return ExitOK
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "dgit",
		Short:         "Client for decentralized code repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          subcommandArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.HasParent() {
				return nil
			}
			cfg, err := app.Load(c.workDir, cmd.Flags())
			if err != nil {
				return err
			}
			c.wire, err = app.NewWire(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			c.wire.Log.Debug("configuration loaded",
				"workdir", cfg.WorkDir,
				"host", cfg.Host,
				"canister", cfg.CanisterID,
				"identity", cfg.IdentityPath,
			)
			return nil
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&c.workDir, "dir", "C", ".", "run as if dgit was started in this directory")
	pf.StringVar(&c.host, "host", "", "gateway URL (env DGIT_HOST, default https://ic0.app)")
	pf.StringVar(&c.canister, "canister", "", "repository canister id (env REPO_CANISTER_ID)")
	pf.StringVar(&c.identity, "identity", "", "identity file (env DGIT_IDENTITY, default ./dgit-identity.json)")
	pf.StringVar(&c.passphrase, "passphrase", "", "passphrase sealing the identity file (env DGIT_PASSPHRASE)")
	pf.DurationVar(&c.timeout, "timeout", 0, "per-request timeout, 0 for none (env DGIT_TIMEOUT)")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (env DGIT_LOG_LEVEL)")
	pf.StringVar(&c.logFile, "log-file", "", "also write logs to this rotating file (env DGIT_LOG_FILE)")

	root.AddCommand(
		initCmd(c),
		cloneCmd(c),
		commitCmd(c),
		pushCmd(c),
		statusCmd(c),
		whoamiCmd(c),
	)
	return root
}
