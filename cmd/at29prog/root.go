package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/breadboardlabs/go-at29/at29"
	"github.com/breadboardlabs/go-at29/console"
)

var (
	flagSim     bool
	flagVerbose bool

	flagAddrLow  string
	flagAddrHigh string
	flagData     string
	flagCE       string
	flagOE       string
	flagWE       string
	flagBufOE    string
)

var rootCmd = &cobra.Command{
	Use:   "at29prog",
	Short: "Program AT29C512-class parallel NOR flash over GPIO",
	Long: `at29prog drives an AT29C512-class 64KB parallel NOR flash through
GPIO pins, or through a built-in simulated chip with --sim.

Without --sim every pin flag is required. Address and data buses take
comma-separated pin names as registered by the host GPIO driver, for
example --data GPIO2,GPIO3,GPIO4,GPIO5,GPIO6,GPIO7,GPIO8,GPIO9.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagSim, "sim", false, "run against a simulated chip instead of real pins")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&flagAddrLow, "addr-low", "", "comma-separated pin names for address bits A0-A7")
	pf.StringVar(&flagAddrHigh, "addr-high", "", "comma-separated pin names for address bits A8-A15")
	pf.StringVar(&flagData, "data", "", "comma-separated pin names for data bits D0-D7")
	pf.StringVar(&flagCE, "ce", "", "pin name for chip enable (active low)")
	pf.StringVar(&flagOE, "oe", "", "pin name for output enable (active low)")
	pf.StringVar(&flagWE, "we", "", "pin name for write enable (active low)")
	pf.StringVar(&flagBufOE, "buf-oe", "", "pin name for the external bus buffer enable")
}

// slogLogger adapts the process-wide slog logger to the driver's
// Logger interface.
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(msg string, keysAndValues ...interface{}) {
	s.l.Debug(msg, keysAndValues...)
}

func (s slogLogger) Info(msg string, keysAndValues ...interface{}) {
	s.l.Info(msg, keysAndValues...)
}

func (s slogLogger) Error(msg string, keysAndValues ...interface{}) {
	s.l.Error(msg, keysAndValues...)
}

func driverOptions() []at29.Option {
	if !flagVerbose {
		return nil
	}
	return []at29.Option{at29.WithLogger(slogLogger{slog.Default()})}
}

func consoleOptions() []console.Option {
	if !flagVerbose {
		return nil
	}
	return []console.Option{console.WithLogger(slogLogger{slog.Default()})}
}
