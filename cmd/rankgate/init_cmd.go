package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rankgate/rankgate/adapters/clock"
	"github.com/rankgate/rankgate/adapters/fingerprint"
	"github.com/rankgate/rankgate/adapters/idgen"
	"github.com/rankgate/rankgate/adapters/sqlite"
	"github.com/rankgate/rankgate/domain/credential"
	"github.com/rankgate/rankgate/domain/plan"
	"github.com/rankgate/rankgate/ports"
	"github.com/spf13/cobra"
)

// demoToken is the well-known key seeded for local exploration. It is
// a free-tier key; the quota kicks in after ten calls like any other.
const demoToken = "demo-key-2024"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and seed a demo API key",
	Long: `Initialize RankGate.

This will:
  1. Create the database and apply migrations
  2. Create a demo account
  3. Seed the well-known demo API key (free tier)

Running init again is safe; existing records are left alone.

Examples:
  rankgate init
  rankgate init --config /etc/rankgate/config.yaml`,
	RunE: runInit,
}

var initDemoEmail string

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initDemoEmail, "demo-email", "demo@example.com", "email for the seeded demo account")
}

func runInit(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("%s Database ready\n", checkMark)

	ctx := context.Background()
	accounts := sqlite.NewAccountStore(db)
	credentials := sqlite.NewCredentialStore(db)
	ids := idgen.UUID{}
	now := clock.Real{}.Now()

	account := ports.Account{
		ID:        ids.New(),
		Email:     initDemoEmail,
		Active:    true,
		CreatedAt: now,
	}
	err = accounts.Create(ctx, account)
	switch {
	case errors.Is(err, ports.ErrConflict):
		account, err = accounts.GetByEmail(ctx, initDemoEmail)
		if err != nil {
			return fmt.Errorf("load demo account: %w", err)
		}
		fmt.Printf("%s Demo account already exists: %s\n", checkMark, account.Email)
	case err != nil:
		return fmt.Errorf("create demo account: %w", err)
	default:
		fmt.Printf("%s Created demo account: %s\n", checkMark, account.Email)
	}

	c := credential.Credential{
		ID:          ids.New(),
		AccountID:   account.ID,
		Fingerprint: fingerprint.Blake2b{}.Fingerprint(demoToken),
		Prefix:      demoPrefix(demoToken),
		Tier:        plan.TierFree,
		Active:      true,
		CreatedAt:   now,
	}
	err = credentials.Create(ctx, c)
	switch {
	case errors.Is(err, ports.ErrConflict):
		fmt.Printf("%s Demo key already seeded\n", checkMark)
	case err != nil:
		return fmt.Errorf("seed demo key: %w", err)
	default:
		fmt.Printf("%s Seeded demo key (free tier)\n", checkMark)
	}

	fmt.Println()
	fmt.Println("Try it:")
	fmt.Printf("  curl -H 'X-API-Key: %s' http://localhost:8772/api/locations\n", demoToken)

	return nil
}

// demoPrefix extracts the display prefix of the fixed demo token,
// which does not follow the generated hex-hex layout.
func demoPrefix(token string) string {
	if i := strings.IndexByte(token, '-'); i > 0 {
		return token[:i]
	}
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
