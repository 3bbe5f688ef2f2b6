package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/loomline/backend/internal/database"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loomline",
	Short: "Loomline CLI - Operational commands for a Loomline deployment",
	Long: `Loomline CLI provides command-line access to a running Loomline
database for operational tasks: granting and revoking admin privileges,
inspecting accounts, and similar maintenance that has no HTTP surface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}
		return database.Initialize()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return database.Close()
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
