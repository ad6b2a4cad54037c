package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/monshunter/sshxfer/pkg/config"
	"github.com/monshunter/sshxfer/pkg/envar"
	"github.com/monshunter/sshxfer/pkg/log"
	"github.com/monshunter/sshxfer/pkg/runner"
	"github.com/monshunter/sshxfer/pkg/ssh"
	"github.com/monshunter/sshxfer/pkg/transfer"
)

const defaultEnvFile = ".env"

// Runtime holds the collaborators that touch the outside world
type Runtime struct {
	Executor runner.Executor
	Checker  ssh.Checker
	// Tools is optional; nil skips the local tool check
	Tools *runner.ToolDetector
}

// DefaultRuntime runs real processes and dials real hosts
func DefaultRuntime() Runtime {
	return Runtime{
		Executor: runner.New(),
		Checker:  ssh.NewPreflight(),
		Tools:    runner.NewToolDetector(),
	}
}

// options are the flags shared by both tools
type options struct {
	conn *transfer.Connection

	verbose    bool
	quiet      bool
	configPath string
	envFile    string
	dryRun     bool
	preflight  bool
	timeout    time.Duration
}

func (o *options) addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.SortFlags = false

	flags.StringVarP(&o.conn.Host, "host", "H", "", "Remote host (required)")
	flags.IntVarP(&o.conn.Port, "port", "P", transfer.DefaultPort, "SSH port")
	flags.StringVarP(&o.conn.Username, "username", "u", "", "SSH user (required)")
	flags.StringVarP(&o.conn.Password, "password", "p", "",
		"SSH password, passed to sshpass through the environment (or set "+envar.SSHXFER_PASSWORD+")")
	flags.StringVarP(&o.conn.KeyFile, "keyfile", "k", "", "SSH private key file")
	flags.StringVarP(&o.conn.Sudoer, "sudoer", "s", transfer.SudoerTrue,
		`Run the remote side with sudo: "true", "false" or "auto" (probe for passwordless sudo)`)
}

func (o *options) addRuntimeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.configPath, "config", "", "YAML profile with connection defaults (default "+envar.DefaultProfile()+" when present)")
	flags.StringVar(&o.envFile, "env-file", defaultEnvFile, "Env file loaded before reading "+envar.SSHXFER_PASSWORD)
	flags.BoolVar(&o.dryRun, "dry-run", false, "Print the command line without running anything")
	flags.BoolVar(&o.preflight, "preflight", false, "Check SSH connectivity and credentials before the transfer")
	flags.DurationVar(&o.timeout, "timeout", 0, "Abort the transfer after this duration (0 means no limit)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVarP(&o.quiet, "quiet", "q", false, "Enable quiet mode (errors only)")
}

// newCommand wires the shared flags and error handling of both tools
func newCommand(use, short, long string, o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Long:          long,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if o.verbose {
				log.SetVerbose(true)
			}
			if o.quiet {
				log.SetQuiet(true)
			}
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return transfer.UsageError(fmt.Errorf("%w\n\n%s", err, cmd.UsageString()))
	})
	setVersion(cmd)
	return cmd
}

// load applies the env file and profile, then resolves the password.
// Explicit flags always win.
func (o *options) load(cmd *cobra.Command) error {
	changed := cmd.Flags().Changed

	if err := config.LoadEnvFile(o.envFile, changed("env-file")); err != nil {
		return transfer.UsageError(err)
	}

	profilePath := o.configPath
	if profilePath == "" {
		profilePath = envar.DefaultProfile()
	}
	profile, err := config.LoadProfile(profilePath, changed("config"))
	if err != nil {
		return transfer.UsageError(err)
	}
	profile.Apply(o.conn, changed)

	if !changed("timeout") && profile.Timeout != 0 {
		o.timeout = profile.Timeout
	}

	if o.conn.Password == "" {
		o.conn.Password = envar.Password()
	} else {
		log.Debugf("password given on the command line, consider %s instead", envar.SSHXFER_PASSWORD)
	}
	log.AddSecret(o.conn.Password)

	switch o.conn.Sudoer {
	case transfer.SudoerTrue, transfer.SudoerFalse, transfer.SudoerAuto:
	default:
		return transfer.Usagef(`sudoer must be "true", "false" or "auto", got %q`, o.conn.Sudoer)
	}
	if o.timeout < 0 {
		return transfer.Usagef("timeout must not be negative, got %s", o.timeout)
	}
	return nil
}

// checkRemote runs the preflight probe and the sudo detection against conn,
// each only when requested, and stores the resolved sudoer value. conn
// carries the credentials the transfer itself will use.
func (o *options) checkRemote(ctx context.Context, checker ssh.Checker, conn transfer.Connection) error {
	resolveSudo := o.conn.Sudoer == transfer.SudoerAuto

	if o.dryRun {
		if resolveSudo {
			log.Infof("dry run: sudoer auto is shown as %q", transfer.SudoerTrue)
			o.conn.Sudoer = transfer.SudoerTrue
		}
		return nil
	}
	if !o.preflight && !resolveSudo {
		return nil
	}

	var resolved string
	g, gctx := errgroup.WithContext(ctx)
	if o.preflight {
		g.Go(func() error {
			return checker.Probe(gctx, conn)
		})
	}
	if resolveSudo {
		g.Go(func() error {
			sudoer, err := checker.ResolveSudoer(gctx, conn)
			if err != nil {
				return err
			}
			resolved = sudoer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if resolveSudo {
		log.Infof("sudoer auto resolved to %q for %s", resolved, conn.Login())
		o.conn.Sudoer = resolved
	}
	return nil
}

// run executes plan unless this is a dry run, printing the command line
// first and both output streams after
func (o *options) run(ctx context.Context, cmd *cobra.Command, rt Runtime, plan *transfer.Plan) error {
	out := cmd.OutOrStdout()
	plan.PrintCommand(out)
	if o.dryRun {
		return nil
	}

	if rt.Tools != nil {
		if missing := rt.Tools.Missing(plan.Tools...); len(missing) > 0 {
			return transfer.NewError(transfer.KindLocalFilesystem, "check local tools",
				fmt.Errorf("not found in PATH: %s", strings.Join(missing, ", ")))
		}
	}

	start := time.Now()
	report := transfer.Execute(ctx, rt.Executor, plan)
	report.Print(out)
	if report.Err != nil {
		return report.Err
	}
	log.Debugf("transfer finished in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
