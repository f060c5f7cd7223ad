package main

import (
	"go-recruit-crawler/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the history over HTTP",
	Long:  "Starts the HTTP server exposing /health, /jobs and, when subscribers are enabled, /verify.",
	RunE:  runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to server.addr or $PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}

	var verifier server.Verifier
	if cfg.Users.Enabled {
		mgr, err := newUserManager(cfg, logger)
		if err != nil {
			return err
		}
		verifier = mgr
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	return server.New(store, verifier, logger).Run(cmd.Context(), addr)
}
