package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/focusnest/goal-service/internal/app"
	"github.com/focusnest/goal-service/internal/config"
	"github.com/focusnest/goal-service/pkg/logging"
)

var (
	userID     string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:          "goalctl",
	Short:        "Repair tools for the goal service",
	Long:         "Recompute goal totals and rebuild achievement stats against the configured datastore.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "User whose data is repaired (required)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	_ = rootCmd.MarkPersistentFlagRequired("user")

	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(rebuildCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadApp builds the services from the environment, exactly as the server does.
func loadApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New("goalctl", logging.Options{Level: cfg.LogLevel})
	return app.New(ctx, cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
