package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the at29prog version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("at29prog " + version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
