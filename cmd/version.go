package cmd

import (
	"fmt"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/spf13/cobra"
)

// set by goreleaser or -ldflags at build time
var (
	version = "dev"
	commit  = ""
	date    = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version of chyp8",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Version(version, commit, date))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
