package main

import (
	"fmt"

	"go-recruit-crawler/internal/pipeline"

	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Send the weekly digest of new and updated listings",
	RunE:  runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	//digest never scrapes, so no browser is needed
	p, err := pipeline.New(cfg, store, nil, nil, logger, notifierOptions(cfg, logger)...)
	if err != nil {
		return err
	}

	report, err := p.Digest(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.Summary)
	return nil
}
