package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setbusCmd = &cobra.Command{
	Use:   "setbus <isa|lpc|fwh|spi>",
	Short: "Select the chip-access bus",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetBus,
}

func init() {
	rootCmd.AddCommand(setbusCmd)
}

func runSetBus(cmd *cobra.Command, args []string) error {
	bus, err := parseBus(args[0])
	if err != nil {
		return err
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

	fmt.Printf("Bus set to %s\n", bus)
	return nil
}
