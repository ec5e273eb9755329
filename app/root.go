// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tenantcore",
	Short: "tenantcore is a multi-tenant identity and access-control service",
	Long: `tenantcore is a multi-tenant identity and access-control service
that maps human-facing identities onto stable internal UIDs, resolves
effective roles and permissions, and manages domain, user, group and
role lifecycles against a relational store and per-domain directories.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
