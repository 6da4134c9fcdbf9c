package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the whole chip to 0xFF",
	RunE: func(cmd *cobra.Command, args []string) error {
		drv, err := buildDriver()
		if err != nil {
			return err
		}
		if err := drv.ChipErase(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("chip erased")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}
