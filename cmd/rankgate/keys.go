package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rankgate/rankgate/adapters/clock"
	"github.com/rankgate/rankgate/adapters/fingerprint"
	"github.com/rankgate/rankgate/adapters/idgen"
	"github.com/rankgate/rankgate/adapters/random"
	"github.com/rankgate/rankgate/adapters/sqlite"
	"github.com/rankgate/rankgate/app"
	"github.com/rankgate/rankgate/bootstrap"
	"github.com/rankgate/rankgate/domain/plan"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
	Long: `Manage RankGate API keys.

Each account can have multiple API keys. The full key is shown exactly
once at creation; only its fingerprint is stored.

Examples:
  rankgate keys list --account=acc_123
  rankgate keys issue --account=acc_123 --tier=pro
  rankgate keys revoke key_abc123`,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys for an account",
	RunE:  runKeysList,
}

var keysIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a new API key",
	RunE:  runKeysIssue,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

var (
	keyAccountID string
	keyTier      string
)

func init() {
	rootCmd.AddCommand(keysCmd)

	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysIssueCmd)
	keysCmd.AddCommand(keysRevokeCmd)

	keysListCmd.Flags().StringVar(&keyAccountID, "account", "", "account ID (required)")
	keysListCmd.MarkFlagRequired("account")
	keysIssueCmd.Flags().StringVar(&keyAccountID, "account", "", "account ID (required)")
	keysIssueCmd.Flags().StringVar(&keyTier, "tier", "free", "plan tier: free, starter, pro, enterprise")
	keysIssueCmd.MarkFlagRequired("account")
}

func newIssuer(db *sqlite.DB) *app.IssuerService {
	return app.NewIssuerService(app.IssuerDeps{
		Credentials: sqlite.NewCredentialStore(db),
		Accounts:    sqlite.NewAccountStore(db),
		Fingerprint: fingerprint.Blake2b{},
		Random:      random.Real{},
		IDGen:       idgen.UUID{},
		Clock:       clock.Real{},
		Logger:      bootstrap.SetupLoggerFromEnv(),
	})
}

func runKeysList(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	credentials := sqlite.NewCredentialStore(db)
	list, err := credentials.ListByAccount(context.Background(), keyAccountID)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	if len(list) == 0 {
		fmt.Printf("No keys found for account %s.\n", keyAccountID)
		fmt.Println()
		fmt.Println("Issue a key with: rankgate keys issue --account=<account-id>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPREFIX\tTIER\tSTATUS\tCREATED")
	fmt.Fprintln(w, "--\t------\t----\t------\t-------")

	for _, c := range list {
		status := "active"
		if !c.Active {
			status = "revoked"
		}
		fmt.Fprintf(w, "%s\t%s...\t%s\t%s\t%s\n",
			c.ID, c.Prefix, c.Tier, status, c.CreatedAt.Format("2006-01-02"))
	}

	w.Flush()
	return nil
}

func runKeysIssue(cmd *cobra.Command, args []string) error {
	tier := plan.Tier(keyTier)
	if !tier.Valid() {
		return fmt.Errorf("unknown tier: %s (valid: free, starter, pro, enterprise)", keyTier)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	token, c, err := newIssuer(db).Issue(context.Background(), keyAccountID, tier)
	if err != nil {
		return fmt.Errorf("failed to issue key: %w", err)
	}

	fmt.Printf("%s Issued %s key for account %s\n", checkMark, tier, keyAccountID)
	fmt.Println()
	fmt.Println("API Key (save this, shown once):")
	fmt.Printf("  %s\n", token)
	fmt.Println()
	fmt.Printf("Key ID: %s\n", c.ID)

	return nil
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	keyID := args[0]

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	credentials := sqlite.NewCredentialStore(db)
	c, err := credentials.GetByID(context.Background(), keyID)
	if err != nil {
		return fmt.Errorf("key not found: %s", keyID)
	}

	if !c.Active {
		fmt.Printf("Key %s is already revoked.\n", keyID)
		return nil
	}

	if !confirm(fmt.Sprintf("Revoke key %s?", keyID)) {
		fmt.Println("Aborted.")
		return nil
	}

	if err := credentials.Revoke(context.Background(), keyID); err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}

	fmt.Printf("%s Revoked key: %s\n", checkMark, keyID)
	return nil
}
