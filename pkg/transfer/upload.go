package transfer

import (
	"path/filepath"
	"strconv"

	"github.com/monshunter/sshxfer/pkg/shell"
)

const (
	uploadHeading = "[File Upload Command]"

	rsyncPath     = "/usr/bin/rsync"
	sudoRsyncPath = "/usr/bin/sudo /usr/bin/rsync"

	// RsyncLogName is the file rsync's output is written to inside the log dir
	RsyncLogName = "rsync.log"
)

// AuthMethod is the SSH authentication used by the rsync transport
type AuthMethod int

const (
	// AuthDefault leaves authentication to ssh (agent, default keys)
	AuthDefault AuthMethod = iota
	AuthPassword
	AuthKey
)

func (m AuthMethod) String() string {
	switch m {
	case AuthPassword:
		return "password"
	case AuthKey:
		return "keyfile"
	default:
		return "default"
	}
}

// UploadAuth picks the rsync transport authentication. A key file takes
// precedence over a password.
func UploadAuth(c Connection) AuthMethod {
	switch {
	case c.KeyFile != "":
		return AuthKey
	case c.Password != "":
		return AuthPassword
	default:
		return AuthDefault
	}
}

// UploadCredentials returns c holding only the credentials the rsync
// transport authenticates with, so remote checks dial the same way
func UploadCredentials(c Connection) Connection {
	if UploadAuth(c) == AuthKey {
		c.Password = ""
	}
	return c
}

// BuildUpload assembles the rsync-over-ssh plan:
//
//	rsync -av -H -S -e '<ssh clause>' --rsync-path="<path>" --progress --no-owner --no-group BACKUP HOST:/ | tee > LOG/rsync.log
func BuildUpload(p UploadParams) *Plan {
	logFile := filepath.Join(p.LogDir, RsyncLogName)
	plan := &Plan{
		Heading:    uploadHeading,
		Prepare:    []shell.Command{sudoMkdir(p.LogDir)},
		LocalPaths: []string{p.BackupDir, p.LogDir, logFile},
		Tools:      []string{"rsync", "ssh", "tee"},
	}

	var transport shell.Command
	switch UploadAuth(p.Connection) {
	case AuthKey:
		transport = shell.NewCommand("ssh", "-i", p.KeyFile)
	case AuthPassword:
		transport = shell.NewCommand("sshpass", "-e", "ssh")
		plan.Env = passwordEnv(p.Password)
		plan.Tools = append(plan.Tools, "sshpass")
	default:
		transport = shell.NewCommand("ssh")
	}
	transport = transport.With(shell.Args("-l", p.Username, "-p", strconv.Itoa(p.Port))...).
		With(shell.Args(sshOptions...)...)

	path := rsyncPath
	if p.UseSudo() {
		path = sudoRsyncPath
	}

	rsync := shell.NewCommand("rsync", "-av", "-H", "-S", "-e", transport.String()).
		With(shell.Assign("--rsync-path", path)).
		With(shell.Args("--progress", "--no-owner", "--no-group", p.BackupDir, p.Host+":/")...)

	tee := shell.Command{Name: "tee", RedirectOut: logFile}

	plan.Transfer = shell.Pipeline{rsync, tee}
	return plan
}
