package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"liquigen/internal/config"
	"liquigen/internal/container"
	"liquigen/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "liquigen",
		Short:         "Generate Liquibase MongoDB changelogs from spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newLedgerCmd(),
		newMigrateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, applies flag overrides and configures logging
func bootstrap(overrides func(*config.Config)) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if overrides != nil {
		overrides(cfg)
	}
	logging.Configure(cfg.Logging.Level, cfg.Logging.Format)
	return container.New(cfg)
}

func newGenerateCmd() *cobra.Command {
	var (
		format    string
		outputDir string
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Process a spreadsheet and write changelog files",
		Long: `Process every row of an .xlsx, .xlsm or .csv file and write one changelog per
output file key and operation.

Example: liquigen generate forms.xlsx --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			emit, err := newPrinter(format)
			if err != nil {
				return err
			}

			c, err := bootstrap(func(cfg *config.Config) {
				if outputDir != "" {
					cfg.Paths.OutputDir = outputDir
					if os.Getenv("LEDGER_PATH") == "" {
						cfg.Ledger.Path = config.DefaultLedgerPath(outputDir)
					}
				}
			})
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			ctx := cmd.Context()
			if err := c.InitPipeline(ctx); err != nil {
				return err
			}

			result, runErr := c.Pipeline.Run(ctx, args[0])
			if result != nil {
				if err := emit(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			}
			if runErr != nil {
				return runErr
			}
			if strict && result.Failed() > 0 {
				return fmt.Errorf("%d row(s) failed", result.Failed())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for generated changelogs (overrides OUTPUT_DIR)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any row fails")

	return cmd
}

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or edit the processed-key ledger",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "check [key]",
			Short: "Report whether an entity key has been processed",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := openLedger(cmd.Context())
				if err != nil {
					return err
				}
				defer c.Shutdown(context.Background())

				ok, err := c.Ledger.HasBeenProcessed(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: processed\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: not processed\n", args[0])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "mark [key...]",
			Short: "Record entity keys as processed without generating changelogs",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := openLedger(cmd.Context())
				if err != nil {
					return err
				}
				defer c.Shutdown(context.Background())

				for _, key := range args {
					if err := c.Ledger.MarkProcessed(cmd.Context(), key); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "marked %d key(s)\n", len(args))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print every recorded key in append order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := openLedger(cmd.Context())
				if err != nil {
					return err
				}
				defer c.Shutdown(context.Background())

				keys, err := c.Ledger.Keys(cmd.Context())
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			},
		},
	)

	return cmd
}

func openLedger(ctx context.Context) (*container.Container, error) {
	c, err := bootstrap(nil)
	if err != nil {
		return nil, err
	}
	if err := c.InitLedger(ctx); err != nil {
		c.Shutdown(context.Background())
		return nil, err
	}
	return c, nil
}

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the postgres ledger schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(func(cfg *config.Config) {
				cfg.Ledger.Backend = "postgres"
				if databaseURL != "" {
					cfg.Ledger.DatabaseURL = databaseURL
				}
			})
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			if c.Config.Ledger.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL or --database-url is required")
			}
			if err := c.InitLedger(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ledger schema is up to date")
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (overrides DATABASE_URL)")
	return cmd
}
