package cmd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/solatis/shelfwright/internal/core/auth"
	"github.com/solatis/shelfwright/internal/core/config"
	"github.com/solatis/shelfwright/internal/core/db"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage API keys",
}

var keyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an API key for an owner, creating the owner if needed",
	RunE:  runKeyCreate,
}

var keyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openStore()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := store.RevokeAPIKey(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to revoke key: %w", err)
		}
		logger.Info("revoked api key", "api_key_id", args[0])
		return nil
	},
}

func init() {
	keyCreateCmd.Flags().String("owner", "", "owner name")
	keyCreateCmd.Flags().String("name", "default", "key label")
	keyCreateCmd.Flags().String("secret-id", "", "HMAC secret to sign with (required when several are configured)")
	_ = keyCreateCmd.MarkFlagRequired("owner")

	keyCmd.AddCommand(keyCreateCmd, keyRevokeCmd)
	rootCmd.AddCommand(keyCmd)
}

func runKeyCreate(cmd *cobra.Command, args []string) error {
	ownerName, _ := cmd.Flags().GetString("owner")
	label, _ := cmd.Flags().GetString("name")
	secretID, _ := cmd.Flags().GetString("secret-id")

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	secretID, err = pickSecret(secrets, secretID)
	if err != nil {
		return err
	}

	store, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := cmd.Context()

	owner, err := store.OwnerByName(ctx, ownerName)
	if errors.Is(err, db.ErrNotFound) {
		owner, err = store.CreateOwner(ctx, ownerName)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve owner: %w", err)
	}

	key, hash, err := auth.GenerateAPIKey(secretID, secrets[secretID])
	if err != nil {
		return err
	}
	id, err := store.CreateAPIKey(ctx, owner.ID, secretID, hash, label)
	if err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}

	logger.Info("created api key", "api_key_id", id, "owner", ownerName)
	// The key is shown once; only its HMAC is stored.
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

// pickSecret resolves which configured secret signs a new key.
func pickSecret(secrets map[string][]byte, want string) (string, error) {
	if len(secrets) == 0 {
		return "", fmt.Errorf("no HMAC secrets configured (set SW_HMAC_SECRET environment variable)")
	}
	if want != "" {
		if _, ok := secrets[want]; !ok {
			return "", fmt.Errorf("secret %q is not configured", want)
		}
		return want, nil
	}
	if len(secrets) > 1 {
		ids := make([]string, 0, len(secrets))
		for id := range secrets {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		return "", fmt.Errorf("several HMAC secrets configured, choose one with --secret-id: %v", ids)
	}
	for id := range secrets {
		return id, nil
	}
	return "", nil
}

func openStore() (*db.Store, func(), error) {
	if err := requireDBURL(); err != nil {
		return nil, nil, err
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return db.NewStore(queries), func() { database.Close() }, nil
}
