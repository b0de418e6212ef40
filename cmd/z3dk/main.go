// Command z3dk is the CLI front-end for the 65816 disassembly, lint, and
// language-server toolchain: one root cobra command, one persistent flag
// set, and a subcommand per operation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/z3dk/z3dk/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "z3dk",
	Short: "65816 disassembly, lint, and language-server toolchain " + version.GetVersion(),
	Long: `z3dk - 65816 Romhacking Toolchain
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
Disassemble, lint, and serve LSP capabilities for 65816 assembly
patch projects (WLA-DX flavored, LoROM mapping).

COMMANDS:
  disasm   - Disassemble a ROM bank range to re-assemblable source
  lint     - Run the analysis engine against an assembled patch
  symbols  - Load and dump a symbol file (MLB/SYM/CSV)
  lsp      - Run the language server over stdio
  version  - Print build and version information`,
}

func main() {
	rootCmd.AddCommand(disasmCmd, lintCmd, symbolsCmd, lspCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
