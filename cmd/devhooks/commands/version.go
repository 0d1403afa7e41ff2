package commands

import (
	"fmt"
	"io"

	"github.com/roasbeef/devhooks/internal/build"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  `Display the version, commit hash, and build metadata for devhooks.`,
	Run:   runVersion,
}

// runVersion prints the version and build information.
func runVersion(cmd *cobra.Command, args []string) {
	printVersion(cmd.OutOrStdout())
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "devhooks version %s", build.Version())

	if build.Commit != "" {
		fmt.Fprintf(w, " commit=%s", build.Commit)
	}

	if build.GoVersion != "" {
		fmt.Fprintf(w, " go=%s", build.GoVersion)
	}

	if tags := build.Tags(); len(tags) > 0 {
		fmt.Fprintf(w, " tags=%s", build.RawTags)
	}

	fmt.Fprintln(w)
}
