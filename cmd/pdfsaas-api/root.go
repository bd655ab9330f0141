package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:          "pdfsaas-api",
	Short:        "Turns PDF page ranges into study documents",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recoverCmd)
}
