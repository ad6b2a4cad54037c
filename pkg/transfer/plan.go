package transfer

import (
	"github.com/monshunter/sshxfer/pkg/runner"
	"github.com/monshunter/sshxfer/pkg/shell"
)

// sshOptions disable host key verification for migration targets that
// are reinstalled often
var sshOptions = []string{
	"-q",
	"-o", "StrictHostKeyChecking=no",
	"-o", "UserKnownHostsFile=/dev/null",
}

// Plan is everything a tool runs for one transfer
type Plan struct {
	// Heading is printed above the command line
	Heading string
	// Prepare runs locally before the transfer; failures do not stop it
	Prepare []shell.Command
	// Transfer runs as a process pipeline
	Transfer shell.Pipeline
	// Post runs after the transfer regardless of its outcome
	Post []shell.Command
	// Env is added to the transfer's environment. It carries secrets and
	// is never printed.
	Env []string
	// LocalPaths are local paths used to attribute failures
	LocalPaths []string
	// Tools are the local executables the transfer needs
	Tools []string
}

// CommandLine renders the transfer and post steps as one shell line, the
// way it is printed before execution
func (p *Plan) CommandLine() string {
	statements := []string{p.Transfer.String()}
	for _, c := range p.Post {
		statements = append(statements, c.String())
	}
	return shell.Sequence(statements...)
}

// Stages converts the transfer pipeline into runner stages
func (p *Plan) Stages() []runner.Stage {
	stages := make([]runner.Stage, 0, len(p.Transfer))
	for _, c := range p.Transfer {
		stages = append(stages, runner.Stage{Argv: c.Argv(), StdoutFile: c.RedirectOut})
	}
	return stages
}

// passwordEnv returns the environment entry sshpass -e reads the password from
func passwordEnv(password string) []string {
	return []string{"SSHPASS=" + password}
}

func sudoMkdir(dir string) shell.Command {
	return shell.NewCommand("sudo", "mkdir", "-p", dir)
}
