package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dgit/internal/canister"
	"dgit/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dgit-canister:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		listen     string
		canisterID string
		logLevel   string
		logFile    string
	)

	cmd := &cobra.Command{
		Use:           "dgit-canister",
		Short:         "In-memory repository canister for local development",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.New(logging.Options{Level: logLevel, File: logFile})
			if err != nil {
				return err
			}
			defer log.Close()

			srv := &http.Server{
				Addr:              listen,
				Handler:           canister.New(canisterID, canister.WithLogger(log.Logger)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			log.Info("canister listening", "addr", listen, "canister", canisterID)

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":4943", "listen address")
	cmd.Flags().StringVar(&canisterID, "canister-id", "", "only answer for this canister id (default any)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "console log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "also write logs to this rotating file")
	return cmd
}
