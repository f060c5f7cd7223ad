package main

import (
	"fmt"
	"time"

	"go-recruit-crawler/internal/dedup"
	"go-recruit-crawler/internal/spreadsheet"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <file.xlsx>",
	Short: "Import an existing Excel sheet into the history",
	Long:  "Reads a sheet written by an earlier run (matched by header names) and adds its rows to the history. Entries already in the history are kept.",
	Args:  cobra.ExactArgs(1),
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	records, err := spreadsheet.Read(args[0], cfg.Site.Type())
	if err != nil {
		return err
	}
	keyFn, err := dedup.KeyFuncByName(cfg.History.KeyMode)
	if err != nil {
		return err
	}
	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	hist, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}

	added := hist.Import(records, keyFn, time.Now())
	logger.Info("📥 Sheet imported", zap.String("file", args[0]), zap.Int("rows", len(records)), zap.Int("added", added))
	if added > 0 {
		if err := store.Save(cmd.Context(), hist); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rows=%d added=%d total=%d\n", len(records), added, len(hist.Jobs))
	return nil
}
