package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/septivank/eb-billing/internal/console"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const (
	startTimeout = 30 * time.Second
	stopTimeout  = 30 * time.Second
)

func main() {
	loadEnv()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEnv loads the first .env file found in the working directory or up to two parents
func loadEnv() {
	envPaths := []string{
		".env",
		"../../.env", // running from bin/
	}

	if workDir, err := os.Getwd(); err == nil {
		parentDir := filepath.Dir(workDir)
		grandParentDir := filepath.Dir(parentDir)

		envPaths = append(envPaths,
			filepath.Join(workDir, ".env"),
			filepath.Join(parentDir, ".env"),
			filepath.Join(grandParentDir, ".env"),
		)
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			return
		}
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ebbilling",
		Short:         "Electricity board billing office records",
		Long:          "Keeps clients, meter readings and bills, generates bills at a flat rate and reports consumption.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runMenu,
	}

	rootCmd.AddCommand(newIngestCmd(), newSendReadingCmd())
	return rootCmd
}

func runMenu(cmd *cobra.Command, args []string) error {
	var menu *console.Menu

	app := newApp(fx.Populate(&menu))
	return runApp(cmd.Context(), app, menu.Run)
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Store meter readings received from the RabbitMQ ingest queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			app := newApp(fx.Invoke(startIngest))
			return runApp(ctx, app, func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			})
		},
	}
}

// runApp starts app, runs body and stops app again
func runApp(ctx context.Context, app *fx.App, body func(ctx context.Context) error) error {
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, startCancel := context.WithTimeout(ctx, startTimeout)
	defer startCancel()

	if err := app.Start(startCtx); err != nil {
		if errors.Is(startCtx.Err(), context.DeadlineExceeded) {
			fmt.Fprintf(os.Stderr, "application did not start within %s; check that the database and RabbitMQ are reachable\n", startTimeout)
		}
		return err
	}

	runErr := body(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("error stopping app: %w", err))
	}

	return runErr
}
