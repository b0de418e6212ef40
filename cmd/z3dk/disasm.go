package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/z3dk/z3dk/pkg/disasm"
	"github.com/z3dk/z3dk/pkg/hooks"
	"github.com/z3dk/z3dk/pkg/symbols"
	"github.com/z3dk/z3dk/pkg/widthstate"
)

var (
	disasmOutDir     string
	disasmBankStart  int
	disasmBankEnd    int
	disasmSymbolFile string
	disasmHookFile   string
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <rom file>",
	Short: "Disassemble a LoROM bank range to bank_XX.asm files",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisasm,
}

func init() {
	disasmCmd.Flags().StringVarP(&disasmOutDir, "out", "o", ".", "output directory for bank_XX.asm files")
	disasmCmd.Flags().IntVar(&disasmBankStart, "bank-start", 0x00, "first bank to disassemble")
	disasmCmd.Flags().IntVar(&disasmBankEnd, "bank-end", 0x01, "exclusive last bank to disassemble")
	disasmCmd.Flags().StringVar(&disasmSymbolFile, "symbols", "", "symbol file to load (.mlb/.sym/.csv)")
	disasmCmd.Flags().StringVar(&disasmHookFile, "hooks", "", "hooks.json manifest to load")
}

func runDisasm(cmd *cobra.Command, args []string) error {
	rom, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}

	var index *symbols.Index
	if disasmSymbolFile != "" {
		index, err = loadSymbolFile(disasmSymbolFile)
		if err != nil {
			return err
		}
	}

	var manifest *hooks.Manifest
	if disasmHookFile != "" {
		manifest, err = hooks.Load(disasmHookFile)
		if err != nil {
			return fmt.Errorf("loading hooks: %w", err)
		}
	}

	if err := os.MkdirAll(disasmOutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	engine := disasm.New(disasm.Options{
		ROM:       rom,
		Labels:    index,
		Hooks:     manifest,
		BankStart: disasmBankStart,
		BankEnd:   disasmBankEnd,
		DefaultM:  widthstate.Width8,
		DefaultX:  widthstate.Width8,
		OutDir:    disasmOutDir,
	})

	results, err := engine.Run()
	if err != nil {
		return fmt.Errorf("disassembling: %w", err)
	}
	for _, r := range results {
		fmt.Printf("wrote %s (bank %02X)\n", r.Path, r.Bank)
	}
	return nil
}

func loadSymbolFile(path string) (*symbols.Index, error) {
	index := symbols.NewIndex()
	var err error
	switch {
	case hasSuffix(path, ".mlb"):
		err = symbols.LoadMLB(index, path)
	case hasSuffix(path, ".sym"):
		err = symbols.LoadSYM(index, path)
	case hasSuffix(path, ".csv"):
		err = symbols.LoadCSV(index, path)
	default:
		return nil, fmt.Errorf("unrecognized symbol file extension: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading symbols: %w", err)
	}
	return index, nil
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
