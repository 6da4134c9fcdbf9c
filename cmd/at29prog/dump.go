package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/breadboardlabs/go-at29/console"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Read one 128-byte page and print it as hex",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := cmd.Flags().GetInt("page")
		if err != nil {
			return err
		}

		drv, err := buildDriver()
		if err != nil {
			return err
		}
		data, err := drv.ReadPage(cmd.Context(), page)
		if err != nil {
			return err
		}
		fmt.Print(console.FormatPage(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().IntP("page", "p", 0, "page index to read")
}
