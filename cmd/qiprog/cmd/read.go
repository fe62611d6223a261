package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	readBus   string
	readAddr  string
	readWidth int
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read one datum from chip memory",
	Long: `Select a bus, set the address window around the target address, and read
a single 1, 2 or 4 byte datum.

Examples:
  qiprog read --bus lpc --addr 0xFFFF0000 --width 4
  qiprog --sim read --bus lpc --addr 0x40 --width 1`,
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().StringVarP(&readBus, "bus", "b", "lpc", "chip bus (isa, lpc, fwh, spi)")
	readCmd.Flags().StringVarP(&readAddr, "addr", "a", "", "target address (hex or decimal)")
	readCmd.Flags().IntVarP(&readWidth, "width", "w", 1, "datum width in bytes (1, 2 or 4)")

	readCmd.MarkFlagRequired("addr")
}

func runRead(cmd *cobra.Command, args []string) error {
	bus, err := parseBus(readBus)
	if err != nil {
		return err
	}
	addr, err := parseUint32(readAddr)
	if err != nil {
		return err
	}
	if readWidth != 1 && readWidth != 2 && readWidth != 4 {
		return fmt.Errorf("invalid width %d (supported: 1, 2, 4)", readWidth)
	}

	ctx := newContext()
	defer ctx.Close()

	dev, err := openFirstDevice(ctx)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.SetBus(bus); err != nil {
		return fmt.Errorf("failed to set bus: %w", err)
	}
	if err := dev.SetAddress(addr, addr+uint32(readWidth)-1); err != nil {
		return fmt.Errorf("failed to set address window: %w", err)
	}

	switch readWidth {
	case 1:
		v, err := dev.Read8(addr)
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		fmt.Printf("0x%08X: 0x%02X\n", addr, v)
	case 2:
		v, err := dev.Read16(addr)
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		fmt.Printf("0x%08X: 0x%04X\n", addr, v)
	case 4:
		v, err := dev.Read32(addr)
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		fmt.Printf("0x%08X: 0x%08X\n", addr, v)
	}

	return nil
}
