package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/kozaktomas/face-attendance/cmd.Version=..." at release.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

func buildInfo() string {
	return fmt.Sprintf("face-attendance %s\n  Commit: %s\n  Built:  %s\n  Go:     %s\n",
		Version, CommitSHA, BuildDate, runtime.Version())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), buildInfo())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
