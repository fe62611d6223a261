package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/qiprog"
)

var (
	// Global flags
	verbose bool
	useSim  bool
)

var rootCmd = &cobra.Command{
	Use:   "qiprog",
	Short: "QiProg flash chip programmer control",
	Long: `Host-side tool for QiProg flash chip programmers. Enumerates connected
programmers over USB, queries their capabilities, and issues reads and writes
against chip memory.

Examples:
  qiprog list                                        # Show connected programmers
  qiprog info                                        # Capabilities and chip IDs
  qiprog read --bus lpc --addr 0xFFFF0000 --width 4  # Read one dword
  qiprog write --bus lpc --addr 0x0 --width 1 --value 0xA5
  qiprog --sim info                                  # Exercise the simulator`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			qiprog.SetLogLevel(slog.LevelDebug)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&useSim, "sim", false, "use the simulator instead of USB hardware")
}

// newContext builds the driver registry for this invocation.
func newContext() *qiprog.Context {
	if useSim {
		return qiprog.NewWithDrivers(qiprog.NewSimDriver())
	}
	return qiprog.New()
}

// openFirstDevice scans and opens the first programmer found.
func openFirstDevice(ctx *qiprog.Context) (*qiprog.Device, error) {
	devs, err := ctx.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("no programmer found (try --sim, or check cabling and permissions)")
	}
	if len(devs) > 1 && verbose {
		fmt.Printf("%d programmers found, using the first\n", len(devs))
	}

	dev := devs[0]
	if err := dev.Open(); err != nil {
		return nil, fmt.Errorf("failed to open programmer: %w", err)
	}
	return dev, nil
}

// parseBus maps a bus name to its selector.
func parseBus(name string) (qiprog.Bus, error) {
	switch name {
	case "isa":
		return qiprog.BusISA, nil
	case "lpc":
		return qiprog.BusLPC, nil
	case "fwh":
		return qiprog.BusFWH, nil
	case "spi":
		return qiprog.BusSPI, nil
	}
	return 0, fmt.Errorf("unknown bus %q (supported: isa, lpc, fwh, spi)", name)
}

// parseUint32 accepts decimal or 0x-prefixed hex.
func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q (expected decimal or hex like 0xFFFF0000)", s)
	}
	return uint32(v), nil
}
