package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "gmnx",
	Short:   "GMNX score viewer",
	Long:    `Plays GMNX scores: synthesized or recorded performances with live score decorations.`,
	Version: "0.1.0",
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
