package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information variables
var (
	version   = "dev"
	buildTime = "unknown"
	goVersion = "unknown"
)

// SetVersionInfo sets the version information from main package
func SetVersionInfo(v, bt, gv string) {
	version = v
	buildTime = bt
	goVersion = gv
}

// setVersion enables --version on cmd
func setVersion(cmd *cobra.Command) {
	cmd.Version = version
	cmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version: %s\nBuild time: %s\nGo version: %s\n",
		version, buildTime, goVersion))
}
