package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/qiprog"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show capabilities and chip identification",
	Long: `Open the first programmer found and print its capability report and
all chip identification slots.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := newContext()
	defer ctx.Close()

	dev, err := openFirstDevice(ctx)
	if err != nil {
		return err
	}
	defer dev.Close()

	caps, err := dev.Capabilities()
	if err != nil {
		return fmt.Errorf("failed to get capabilities: %w", err)
	}

	fmt.Println("Capabilities:")
	fmt.Printf("  Instruction set: 0x%04X\n", uint16(caps.InstructionSet))
	fmt.Printf("  Bus master:     ")
	for _, bus := range []qiprog.Bus{qiprog.BusISA, qiprog.BusLPC, qiprog.BusFWH, qiprog.BusSPI} {
		if caps.BusMaster&bus != 0 {
			fmt.Printf(" %s", bus)
		}
	}
	fmt.Println()
	fmt.Printf("  Max direct data: %d bytes\n", caps.MaxDirectData)
	fmt.Printf("  Voltages:       ")
	for _, v := range caps.Voltages {
		if v != 0 {
			fmt.Printf(" %d.%dV", v/10, v%10)
		}
	}
	fmt.Println()

	ids, err := dev.ChipIDs()
	if err != nil {
		return fmt.Errorf("failed to read chip ids: %w", err)
	}

	fmt.Println("Chip identification:")
	found := 0
	for i, id := range ids {
		if id.Method == qiprog.IDMethodNone {
			continue
		}
		found++
		fmt.Printf("  slot %d: method %d, vendor 0x%04X, device 0x%08X\n",
			i, id.Method, id.Vendor, id.Device)
	}
	if found == 0 {
		fmt.Println("  no chip identified")
	}

	return nil
}
