// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var (
	configPath string // directory holding main.toml

	rootCmd = &cobra.Command{
		Use:   "greennest",
		Short: "GreenNest is a plant storefront with accounts and care consultations",
		Long: `GreenNest is a plant storefront web service. Visitors browse the plant
catalog, sign in with email and password or Google, and book care
consultations for the plants they like.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "etc", "Directory of the main.toml configuration")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
