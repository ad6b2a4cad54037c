package main

import (
	"github.com/monshunter/sshxfer/cmd/app"
	"github.com/monshunter/sshxfer/pkg/log"
	"github.com/monshunter/sshxfer/pkg/transfer"
)

// Version information set by build-time LDFLAGS
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	app.SetVersionInfo(Version, BuildTime, GoVersion)

	if err := app.NewDownloadCommand().Execute(); err != nil {
		log.FatalWithCode(transfer.ExitCode(err), "Error: ", err)
	}
}
