package transfer

import (
	"strconv"

	"github.com/monshunter/sshxfer/pkg/shell"
)

const downloadHeading = "[File Download Command]"

// BuildDownload assembles the tar-over-ssh plan:
//
//	[sshpass -e] ssh [-i key] -p port -q -o ... user@host "[sudo] tar [--exclude=p]... -cf - SRC" | tar xf - [--strip-components=N] -C TARGET [; mkdir -p PARENT ; mv -f ASIS TOBE]
//
// A password and a key file are both honored: the key is offered first and
// sshpass answers a password prompt if the server falls back to it.
func BuildDownload(p DownloadParams) *Plan {
	plan := &Plan{
		Heading:    downloadHeading,
		LocalPaths: []string{p.TargetDir},
	}

	if p.MkDirs == SudoerTrue {
		plan.Prepare = append(plan.Prepare, sudoMkdir(p.TargetDir))
	}

	remote := remoteTar(p)

	var ssh shell.Command
	if p.Password != "" {
		ssh = shell.NewCommand("sshpass", "-e", "ssh")
		plan.Env = passwordEnv(p.Password)
		plan.Tools = append(plan.Tools, "sshpass")
	} else {
		ssh = shell.NewCommand("ssh")
	}
	if p.KeyFile != "" {
		ssh = ssh.With(shell.Args("-i", p.KeyFile)...)
	}
	ssh = ssh.With(shell.Args("-p", strconv.Itoa(p.Port))...).
		With(shell.Args(sshOptions...)...).
		With(shell.Arg(p.Login()), shell.DoubleQuoted(remote.String()))

	extract := shell.NewCommand("tar", "xf", "-")
	if p.Depth > 0 {
		extract = extract.With(shell.Arg("--strip-components=" + strconv.Itoa(p.Depth)))
	}
	extract = extract.With(shell.Args("-C", p.TargetDir)...)

	plan.Transfer = shell.Pipeline{ssh, extract}
	plan.Tools = append(plan.Tools, "ssh", "tar")

	if p.HasMove() {
		plan.Post = []shell.Command{
			shell.NewCommand("mkdir", "-p", p.ParentDir),
			shell.NewCommand("mv", "-f", p.AsisDir, p.TobeDir),
		}
		plan.LocalPaths = append(plan.LocalPaths, p.ParentDir, p.AsisDir, p.TobeDir)
	}

	return plan
}

// remoteTar is the archiving command run by the remote shell
func remoteTar(p DownloadParams) shell.Command {
	var tar shell.Command
	if p.UseSudo() {
		tar = shell.NewCommand("sudo", "tar")
	} else {
		tar = shell.NewCommand("tar")
	}
	for _, pattern := range p.ExcludePatterns() {
		tar = tar.With(shell.Arg("--exclude=" + pattern))
	}
	tar = tar.With(shell.Args("-cf", "-")...)
	if p.InputFile != "" {
		return tar.With(shell.Raw("$(cat " + shell.Quote(p.InputFile) + ")"))
	}
	return tar.With(shell.Arg(p.SourceDir))
}
