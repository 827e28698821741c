package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/teenyurl/internal/app"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Configure ^C and SIGTERM to terminate program
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var envFile string

	cmd := &cobra.Command{
		Use:           "teenyurl",
		Short:         "teenyurl URL shortener",
		Long:          "teenyurl maps long URLs to short keys and redirects visitors of a key to its URL.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetArgs(args)

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this dotenv file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := app.New(cmd.Context(), envFile)
				if err != nil {
					return err
				}
				defer a.Shutdown()

				return a.Run(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return app.Migrate(cmd.Context(), envFile)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)

	setFlagsFromEnvVariables(cmd.PersistentFlags())

	return cmd.ExecuteContext(ctx)
}
