package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/storefront-api/cmd/seed-admin/ui"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Provision an admin account",
		Long: "Creates an account with the admin role. The password is taken from ADMIN_PASSWORD, " +
			"or prompted for without echo when running in a terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSeed,
	}

	rootCmd.Flags().String("name", "admin", "Display name of the admin account")
	rootCmd.Flags().String("email", os.Getenv("ADMIN_EMAIL"), "Email of the admin account (ADMIN_EMAIL)")

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
