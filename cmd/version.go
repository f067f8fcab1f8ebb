/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"

	"github.com/fulmenhq/codelyzer/pkg/buildinfo"
	"github.com/spf13/cobra"
)

var versionExtended bool

// versionCmd reports the binary version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show codelyzer version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "codelyzer %s\n", buildinfo.BinaryVersion)
		if versionExtended {
			if mv := buildinfo.ModuleVersion(); mv != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "module version: %s\n", mv)
			}
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionExtended, "extended", false, "Show extended build information")
}
