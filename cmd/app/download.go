package app

import (
	"github.com/spf13/cobra"

	"github.com/monshunter/sshxfer/pkg/log"
	"github.com/monshunter/sshxfer/pkg/transfer"
	"github.com/monshunter/sshxfer/pkg/utils"
)

// NewDownloadCommand creates the download tool's root command
func NewDownloadCommand() *cobra.Command {
	return newDownloadCommand(DefaultRuntime())
}

func newDownloadCommand(rt Runtime) *cobra.Command {
	var params transfer.DownloadParams
	o := &options{conn: &params.Connection}

	cmd := newCommand("sshxfer-download",
		"Download a remote directory tree through a tar pipe over SSH",
		`Stream a directory from a remote host with "ssh ... tar -cf -" piped into a
local "tar xf -", optionally escalating with sudo on the remote side,
excluding patterns, stripping leading path components and moving the
extracted tree into place afterwards.`,
		o)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd, rt, o, &params)
	}

	o.addFlags(cmd)
	flags := cmd.Flags()
	flags.StringVar(&params.SourceDir, "source_dir", "", "Remote directory to archive (required)")
	flags.StringVar(&params.TargetDir, "target_dir", "", "Local directory to extract into (required)")
	flags.StringVar(&params.ParentDir, "parent_dir", "", "Local directory created before the move")
	flags.StringVar(&params.AsisDir, "asis_dir", "", "Local path moved after extraction")
	flags.StringVar(&params.TobeDir, "tobe_dir", "", "Destination of the move")
	flags.IntVar(&params.Depth, "depth", 0, "Leading path components stripped on extraction")
	flags.StringVar(&params.MkDirs, "mkdirs", "true", `"true" creates target_dir with sudo mkdir -p before the transfer`)
	flags.StringVar(&params.InputFile, "input_file", "", "Remote file listing the paths to archive instead of source_dir")
	flags.StringVar(&params.Exclude, "exclude", "", "Comma separated patterns excluded from the archive")
	o.addRuntimeFlags(cmd)

	return cmd
}

func runDownload(cmd *cobra.Command, rt Runtime, o *options, params *transfer.DownloadParams) error {
	if err := o.load(cmd); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if params.PartialMove() {
		log.Warnf("parent_dir, asis_dir and tobe_dir must all be set to move the download, skipping the move")
	}

	handler := NewGracefulShutdownHandler(o.timeout)
	defer handler.Close()
	ctx := handler.Context()

	if err := o.checkRemote(ctx, rt.Checker, *o.conn); err != nil {
		return err
	}

	if err := o.run(ctx, cmd, rt, transfer.BuildDownload(*params)); err != nil {
		return err
	}
	if !o.dryRun {
		summarizeTree(params.TargetDir)
	}
	return nil
}

func summarizeTree(dir string) {
	stats, err := utils.WalkTree(dir)
	if err != nil {
		log.Debugf("cannot summarize %s: %v", dir, err)
		return
	}
	log.Infof("Downloaded into %s: %s", dir, stats)
}
