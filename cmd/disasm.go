package cmd

import (
	"fmt"
	"os"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm path/ROM",
	Short: "print the disassembly of a ROM",
	Args:  cobra.ExactArgs(1),
	RunE:  Disasm,
}

// chyp8 disasm 'path/to/ROM'
func Disasm(cmd *cobra.Command, args []string) error {
	rom, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading rom: %w", err)
	}
	return cpu.WriteListing(cmd.OutOrStdout(), rom)
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}
