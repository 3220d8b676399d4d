package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	// VersionMajor is the major number in copse's version
	VersionMajor = 0
	// VersionMinor is the minor number in copse's version
	VersionMinor = 1
	// VersionPatch is the patch number in copse's version
	VersionPatch = 0
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of copse",
		Long:  `All software has versions. This is copse's`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "copse v%d.%d.%d\n", VersionMajor, VersionMinor, VersionPatch)
		},
	}
}
