// file: cmd/diagnostics.go
// version: 2.0.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble/v2"
	"github.com/spf13/cobra"

	"github.com/jdfalk/bookmeta/internal/cache"
	"github.com/jdfalk/bookmeta/internal/config"
)

var (
	diagnosticsCmd = &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging and cleanup helpers",
		Long:  "Diagnostic utilities for inspecting and maintaining the cold cache tier.",
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep-expired",
		Short: "Eagerly delete expired cold-tier entries",
		Long: `Walk the cold tier and delete every entry whose recorded expiry has
passed. The read path evicts lazily, so entries that are never read
again linger until this sweep reclaims them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweepExpired()
		},
	}

	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Inspect raw cold-tier entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			prefix, _ := cmd.Flags().GetString("prefix")
			return runDiagnosticsQuery(limit, prefix)
		},
	}
)

func init() {
	queryCmd.Flags().Int("limit", 5, "Number of entries to display")
	queryCmd.Flags().String("prefix", "search:", "Key prefix to inspect (search:, isbn:, author:)")

	diagnosticsCmd.AddCommand(sweepCmd)
	diagnosticsCmd.AddCommand(queryCmd)

	rootCmd.AddCommand(diagnosticsCmd)
}

func runSweepExpired() error {
	store, err := cache.OpenPebble(config.AppConfig.Cache.ColdPath)
	if err != nil {
		return fmt.Errorf("failed to open cold tier: %w", err)
	}
	defer store.Close()

	fmt.Printf("Sweeping cold tier at %s\n", config.AppConfig.Cache.ColdPath)

	scanned, deleted, err := store.SweepExpired(time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Scanned %d entries, deleted %d expired.\n", scanned, deleted)
	return nil
}

func runDiagnosticsQuery(limit int, prefix string) error {
	if limit <= 0 {
		return errors.New("limit must be positive")
	}

	db, err := pebble.Open(config.AppConfig.Cache.ColdPath, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("failed to open cold tier: %w", err)
	}
	defer db.Close()

	iterOpts := &pebble.IterOptions{}
	if prefix != "" {
		iterOpts.LowerBound = []byte(prefix)
		iterOpts.UpperBound = append([]byte(prefix), 0xFF)
	}

	iter, err := db.NewIter(iterOpts)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	ok := iter.First()
	if prefix != "" {
		ok = iter.SeekGE([]byte(prefix))
	}

	for ; ok && iter.Valid(); ok = iter.Next() {
		fmt.Printf("Key: %s\n", string(iter.Key()))
		val := iter.Value()
		fmt.Printf("Value length: %d bytes\n", len(val))
		preview := truncateString(string(val), 500)
		fmt.Printf("Value preview: %s\n", preview)
		fmt.Println("---")

		count++
		if count >= limit {
			break
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}

	if count == 0 {
		fmt.Println("No keys matched the requested prefix.")
	}

	return nil
}

func truncateString(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}
