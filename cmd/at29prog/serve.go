package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/breadboardlabs/go-at29/console"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the single-character command console",
	Long: `serve runs the w/d/e/i command console against the chip. With --port
it listens on a serial port, otherwise it reads stdin and writes stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := cmd.Flags().GetString("port")
		if err != nil {
			return err
		}
		baud, err := cmd.Flags().GetInt("baud")
		if err != nil {
			return err
		}

		drv, err := buildDriver()
		if err != nil {
			return err
		}

		var rw io.ReadWriter = stdio{}
		if port != "" {
			sp, err := serial.Open(port, &serial.Mode{BaudRate: baud})
			if err != nil {
				return fmt.Errorf("open %s: %w", port, err)
			}
			defer sp.Close()
			rw = sp
		}

		return console.New(rw, drv, consoleOptions()...).Run(cmd.Context())
	},
}

// stdio joins stdin and stdout into one io.ReadWriter for the console.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "serial port to listen on, for example /dev/ttyUSB0")
	serveCmd.Flags().Int("baud", 115200, "baud rate for --port")
}
