package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/breadboardlabs/go-at29/at29"
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Program one 128-byte page from a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := cmd.Flags().GetInt("page")
		if err != nil {
			return err
		}
		file, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if len(data) > at29.PageSize {
			return fmt.Errorf("%s holds %d bytes; a page holds at most %d", file, len(data), at29.PageSize)
		}

		drv, err := buildDriver()
		if err != nil {
			return err
		}
		if err := drv.WritePage(cmd.Context(), page, data); err != nil {
			return err
		}
		fmt.Printf("page %d programmed (%d bytes, zero-padded to %d)\n", page, len(data), at29.PageSize)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().IntP("page", "p", 0, "page index to program")
	writeCmd.Flags().StringP("file", "f", "", "file holding up to 128 bytes of page data")
	writeCmd.MarkFlagRequired("file")
}
