package main

import (
	"errors"
	"fmt"

	"go-recruit-crawler/internal/reporter"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage email subscribers",
}

var usersSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Send verification emails for new registration issues",
	RunE:  runUsersSync,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List verified subscribers",
	RunE:  runUsersList,
}

func init() {
	usersCmd.AddCommand(usersSyncCmd, usersListCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsersSync(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.Email.Enabled {
		return errors.New("email must be enabled to verify subscribers")
	}
	mgr, err := newUserManager(cfg, logger)
	if err != nil {
		return err
	}
	sent, err := mgr.Sync(cmd.Context(), reporter.NewEmailNotifier(cfg.Email, logger))
	fmt.Fprintf(cmd.OutOrStdout(), "verification emails sent: %d\n", sent)
	return err
}

func runUsersList(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	mgr, err := newUserManager(cfg, logger)
	if err != nil {
		return err
	}
	list, err := mgr.VerifiedUsers()
	if err != nil {
		return err
	}
	for _, u := range list {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tkeywords=%v\tlocations=%v\n",
			u.Email, u.Preferences.NotificationFreq, u.Preferences.Keywords, u.Preferences.Locations)
	}
	return nil
}
