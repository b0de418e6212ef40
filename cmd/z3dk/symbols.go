package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <symbol file>",
	Short: "Load and dump a symbol file (.mlb/.sym/.csv)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

func runSymbols(cmd *cobra.Command, args []string) error {
	index, err := loadSymbolFile(args[0])
	if err != nil {
		return err
	}

	addrs := index.Addresses()
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		names, _ := index.Lookup(addr)
		for _, name := range names {
			fmt.Printf("%s %s\n", addr, name)
		}
	}
	fmt.Printf("%d label(s)\n", index.Len())
	return nil
}
