package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	writeBus   string
	writeAddr  string
	writeWidth int
	writeValue string
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write one datum to chip memory",
	Long: `Select a bus, set the address window around the target address, and write
a single 1, 2 or 4 byte datum.

Examples:
  qiprog write --bus lpc --addr 0x0 --width 1 --value 0xA5
  qiprog --sim write --bus fwh --addr 0x40 --width 4 --value 0xCAFEBABE`,
	RunE: runWrite,
}

func init() {
	rootCmd.AddCommand(writeCmd)

	writeCmd.Flags().StringVarP(&writeBus, "bus", "b", "lpc", "chip bus (isa, lpc, fwh, spi)")
	writeCmd.Flags().StringVarP(&writeAddr, "addr", "a", "", "target address (hex or decimal)")
	writeCmd.Flags().IntVarP(&writeWidth, "width", "w", 1, "datum width in bytes (1, 2 or 4)")
	writeCmd.Flags().StringVar(&writeValue, "value", "", "value to write (hex or decimal)")

	writeCmd.MarkFlagRequired("addr")
	writeCmd.MarkFlagRequired("value")
}

func runWrite(cmd *cobra.Command, args []string) error {
	bus, err := parseBus(writeBus)
	if err != nil {
		return err
	}
	addr, err := parseUint32(writeAddr)
	if err != nil {
		return err
	}
	value, err := parseUint32(writeValue)
	if err != nil {
		return err
	}
	if writeWidth != 1 && writeWidth != 2 && writeWidth != 4 {
		return fmt.Errorf("invalid width %d (supported: 1, 2, 4)", writeWidth)
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
	if err := dev.SetAddress(addr, addr+uint32(writeWidth)-1); err != nil {
		return fmt.Errorf("failed to set address window: %w", err)
	}

	switch writeWidth {
	case 1:
		if value > 0xFF {
			return fmt.Errorf("value %#x does not fit in 1 byte", value)
		}
		err = dev.Write8(addr, uint8(value))
	case 2:
		if value > 0xFFFF {
			return fmt.Errorf("value %#x does not fit in 2 bytes", value)
		}
		err = dev.Write16(addr, uint16(value))
	case 4:
		err = dev.Write32(addr, value)
	}
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	fmt.Printf("0x%08X <- 0x%X\n", addr, value)
	return nil
}
