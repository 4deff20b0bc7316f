package main

import (
	"encoding/json"
	"fmt"
	"os"

	"catalog-sync/internal/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle and print its outcome",
	Long: `Fetches the product entries once, reconciles them and prints the cycle
outcome as JSON. Exits non-zero when the cycle ended with a fault.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	orchestrator, err := newOrchestrator(cfg, db, metrics.New(), log)
	if err != nil {
		return err
	}

	outcome := orchestrator.RunCycle(cmd.Context())

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(outcome); err != nil {
		return fmt.Errorf("failed to print sync outcome: %w", err)
	}

	if outcome.Fault != "" {
		log.Warn("Sync cycle aborted", zap.String("fault", string(outcome.Fault)))
		return fmt.Errorf("sync cycle aborted: %s", outcome.Fault)
	}
	return nil
}
