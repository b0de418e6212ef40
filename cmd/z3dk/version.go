package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/z3dk/z3dk/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.GetFullVersion())
		return nil
	},
}
