package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time. Without it, the module
// version from the build info is used when there is one.
var version = "(devel)"

func init() {
	if version != "(devel)" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the memoir version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("memoir", version)
	},
}
