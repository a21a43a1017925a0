package main

import (
	"context"
	"fmt"

	"github.com/rankgate/rankgate/adapters/clock"
	"github.com/rankgate/rankgate/adapters/idgen"
	"github.com/rankgate/rankgate/adapters/sqlite"
	"github.com/rankgate/rankgate/ports"
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage accounts",
	Long: `Manage RankGate accounts.

An account owns API keys. Suspending an account makes every key it
owns stop resolving without touching the keys themselves.

Examples:
  rankgate accounts add --email=dev@example.com
  rankgate accounts suspend acc_123
  rankgate accounts activate acc_123`,
}

var accountsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	RunE:  runAccountsAdd,
}

var accountsSuspendCmd = &cobra.Command{
	Use:   "suspend <account-id>",
	Short: "Suspend an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsSetActive(false),
}

var accountsActivateCmd = &cobra.Command{
	Use:   "activate <account-id>",
	Short: "Reactivate a suspended account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsSetActive(true),
}

var accountEmail string

func init() {
	rootCmd.AddCommand(accountsCmd)

	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsSuspendCmd)
	accountsCmd.AddCommand(accountsActivateCmd)

	accountsAddCmd.Flags().StringVar(&accountEmail, "email", "", "account email (required)")
	accountsAddCmd.MarkFlagRequired("email")
}

func runAccountsAdd(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := sqlite.NewAccountStore(db)
	a := ports.Account{
		ID:        idgen.UUID{}.New(),
		Email:     accountEmail,
		Active:    true,
		CreatedAt: clock.Real{}.Now(),
	}
	if err := accounts.Create(context.Background(), a); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	fmt.Printf("%s Created account: %s\n", checkMark, a.Email)
	fmt.Printf("Account ID: %s\n", a.ID)
	fmt.Println()
	fmt.Printf("Issue a key with: rankgate keys issue --account=%s\n", a.ID)

	return nil
}

func runAccountsSetActive(active bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		accountID := args[0]

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		accounts := sqlite.NewAccountStore(db)
		if err := accounts.SetActive(context.Background(), accountID, active); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}

		verb := "Suspended"
		if active {
			verb = "Activated"
		}
		fmt.Printf("%s %s account: %s\n", checkMark, verb, accountID)
		return nil
	}
}
