package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "payment-links",
	Short: "Payment links microservice",
	Long:  "A microservice that issues one-time hosted payment links with invoices, reconciles provider webhooks, and expires stale links.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
