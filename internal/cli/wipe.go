package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all stored objects, missions and conversations (testing only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := dbClient.WipeData(cmd.Context()); err != nil {
			return fmt.Errorf("wipe database: %w", err)
		}
		fmt.Println("All data wiped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wipeCmd)
}
