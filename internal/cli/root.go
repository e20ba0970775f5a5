// Package cli provides the command-line interface for marsight.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avaldes/marsight/internal/config"
	"github.com/avaldes/marsight/internal/db"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global config and db client
	cfg      config.Config
	dbClient *db.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "marsight",
	Short: "Field exploration enrichment and retrieval service",
	Long: `Marsight ingests objects captured in the field, enriches them with
AI-generated descriptions and image embeddings, and serves multi-tier
retrieval (nearby, similar, conversational) over a REST API.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version and help never touch the database
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:             cfg.SurrealDBURL,
			Namespace:       cfg.SurrealDBNamespace,
			Database:        cfg.SurrealDBDatabase,
			Username:        cfg.SurrealDBUser,
			Password:        cfg.SurrealDBPass,
			AuthLevel:       cfg.SurrealDBAuthLevel,
			VectorDimension: cfg.VisionDimension,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, nil)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
