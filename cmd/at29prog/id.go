package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Read the manufacturer and device ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		drv, err := buildDriver()
		if err != nil {
			return err
		}
		manufacturer, device, err := drv.ProductID(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("manufacturer %02X device %02X\n", manufacturer, device)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(idCmd)
}
