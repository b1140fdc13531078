package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version, Commit and Date are set with -ldflags "-X" when releasing
var (
	Version = "v0.0.0"
	Commit  = "commit"
	Date    = "today"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the rawreq version",
	Long:  `print the rawreq version, the commit it was built from and the build date`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rawreq %s (%s)\n", Version, Commit)
		fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
