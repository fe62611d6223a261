package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected programmers",
	Long: `Scan every registered transport and list the programmers found.

Finding none is not an error; the list is simply empty.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := newContext()
	defer ctx.Close()

	devs, err := ctx.ListDevices()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devs) == 0 {
		fmt.Println("No programmers found.")
		return nil
	}

	fmt.Printf("Found %d programmer(s):\n", len(devs))
	for i, dev := range devs {
		fmt.Printf("  %d: %s transport\n", i, dev.Driver().Name())
	}
	return nil
}
