package main

import (
	"fmt"

	"github.com/loomline/backend/internal/auth"
	"github.com/loomline/backend/internal/database"
	"github.com/loomline/backend/internal/models"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin privileges",
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant <handle>",
	Short: "Grant admin privileges to an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := auth.SetRole(args[0], models.RoleAdmin)
		if err != nil {
			return err
		}
		fmt.Printf("Admin privileges granted to %s (@%s)\n", user.DisplayName, user.Handle)
		fmt.Println("The change applies on the user's next request; existing tokens stay valid.")
		return nil
	},
}

var adminRevokeCmd = &cobra.Command{
	Use:   "revoke <handle>",
	Short: "Revoke admin privileges from an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := auth.SetRole(args[0], models.RoleUser)
		if err != nil {
			return err
		}
		fmt.Printf("Admin privileges revoked for %s (@%s)\n", user.DisplayName, user.Handle)
		return nil
	},
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with admin privileges",
	RunE: func(cmd *cobra.Command, args []string) error {
		var admins []models.User
		if err := database.DB.Where("role = ?", models.RoleAdmin).Order("handle ASC").Find(&admins).Error; err != nil {
			return err
		}
		if len(admins) == 0 {
			fmt.Println("No admin accounts.")
			return nil
		}
		for _, u := range admins {
			fmt.Printf("  @%-30s %s\n", u.Handle, u.Email)
		}
		return nil
	},
}

func init() {
	adminCmd.AddCommand(adminGrantCmd)
	adminCmd.AddCommand(adminRevokeCmd)
	adminCmd.AddCommand(adminListCmd)
}
