package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-recruit-crawler/internal/config"
	"go-recruit-crawler/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Archive the history in Postgres and query it",
	Long:  "Imports the JSON history into Postgres (DATABASE_URL), queries archived listings and removes stale rows.",
}

var dbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import history entries not yet archived",
	RunE:  runDBImport,
}

var dbQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query archived listings",
	RunE:  runDBQuery,
}

var dbCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete archived listings crawled more than --days ago",
	RunE:  runDBClean,
}

var (
	dbQuery     database.JobQuery
	dbCleanDays int
)

func init() {
	dbQueryCmd.Flags().StringVarP(&dbQuery.JobType, "type", "t", "", "Listing type: campus or internship")
	dbQueryCmd.Flags().StringVar(&dbQuery.Target, "target", "", "Target graduates, e.g. 2026届")
	dbQueryCmd.Flags().StringVarP(&dbQuery.Location, "location", "l", "", "Work location")
	dbQueryCmd.Flags().StringVarP(&dbQuery.Skill, "skill", "s", "", "Skill tag, e.g. Java")
	dbQueryCmd.Flags().IntVar(&dbQuery.Limit, "limit", 50, "Maximum rows")

	dbCleanCmd.Flags().IntVar(&dbCleanDays, "days", 30, "Age in days after which rows are removed")

	dbCmd.AddCommand(dbImportCmd, dbQueryCmd, dbCleanCmd)
	rootCmd.AddCommand(dbCmd)
}

func openRepository(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) (*database.Repository, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	repo, err := database.ConnectDB(cmd.Context(), cfg.Database.URL, logger)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(cmd.Context()); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

func runDBImport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	hist, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}

	repo, err := openRepository(cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	stats, err := repo.ImportHistory(cmd.Context(), hist)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "total=%d added=%d skipped=%d\n", stats.Total, stats.Added, stats.Skipped)
	return nil
}

func runDBQuery(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	repo, err := openRepository(cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	jobs, err := repo.QueryJobs(cmd.Context(), dbQuery)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(jobs)
}

func runDBClean(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	repo, err := openRepository(cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	n, err := repo.CleanExpired(cmd.Context(), dbCleanDays)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted=%d\n", n)
	return nil
}
