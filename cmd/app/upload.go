package app

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/monshunter/sshxfer/pkg/log"
	"github.com/monshunter/sshxfer/pkg/transfer"
	"github.com/monshunter/sshxfer/pkg/utils"
)

// NewUploadCommand creates the upload tool's root command
func NewUploadCommand() *cobra.Command {
	return newUploadCommand(DefaultRuntime())
}

func newUploadCommand(rt Runtime) *cobra.Command {
	var params transfer.UploadParams
	o := &options{conn: &params.Connection}

	cmd := newCommand("sshxfer-upload",
		"Upload a backup directory to a remote host with rsync over SSH",
		`Copy a local backup directory to the root of a remote host with
"rsync -av -H -S", running rsync with sudo on the remote side when
requested. rsync output is written to <log_dir>/rsync.log.`,
		o)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd, rt, o, &params)
	}

	o.addFlags(cmd)
	flags := cmd.Flags()
	flags.StringVar(&params.BackupDir, "backup_dir", "", "Local directory to upload (required)")
	flags.StringVar(&params.LogDir, "log_dir", "", "Local directory receiving rsync.log (required)")
	o.addRuntimeFlags(cmd)

	return cmd
}

func runUpload(cmd *cobra.Command, rt Runtime, o *options, params *transfer.UploadParams) error {
	if err := o.load(cmd); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if params.Password != "" && params.KeyFile != "" {
		log.Warnf("both password and keyfile given, authenticating with keyfile %s", params.KeyFile)
	}

	handler := NewGracefulShutdownHandler(o.timeout)
	defer handler.Close()
	ctx := handler.Context()

	if err := o.checkRemote(ctx, rt.Checker, transfer.UploadCredentials(params.Connection)); err != nil {
		return err
	}

	if err := o.run(ctx, cmd, rt, transfer.BuildUpload(*params)); err != nil {
		return err
	}
	if !o.dryRun {
		summarizeLog(filepath.Join(params.LogDir, transfer.RsyncLogName))
	}
	return nil
}

func summarizeLog(path string) {
	info, err := os.Stat(path)
	if err != nil {
		log.Debugf("cannot stat %s: %v", path, err)
		return
	}
	log.Infof("rsync log written to %s (%s)", path, utils.FormatSize(info.Size()))
}
