package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/monshunter/sshxfer/pkg/log"
	"github.com/monshunter/sshxfer/pkg/runner"
	"github.com/monshunter/sshxfer/pkg/shell"
)

// Report is the outcome of executing a plan
type Report struct {
	Plan     *Plan
	Transfer *runner.Result
	Post     []*runner.Result
	Err      error
}

// Execute runs the plan: prepare steps (failures logged, never fatal), the
// transfer pipeline, then the post steps. Post steps run even when the
// transfer failed, but not once ctx is done. The returned error is
// classified.
func Execute(ctx context.Context, exec runner.Executor, plan *Plan) *Report {
	report := &Report{Plan: plan}

	for _, step := range plan.Prepare {
		result, err := exec.Run(ctx, step.Argv(), nil)
		if err != nil {
			log.Warnf("%s failed, continuing: %v%s", step.String(), err, stderrSuffix(result))
			continue
		}
		log.Debugf("%s done", step.String())
	}

	result, err := exec.RunPipeline(ctx, plan.Stages(), plan.Env)
	report.Transfer = result
	var transferErr error
	if err != nil {
		transferErr = classifyRun("transfer", err, plan)
	}

	if ctx.Err() != nil {
		if len(plan.Post) > 0 {
			log.Warnf("transfer interrupted, skipping %d post step(s)", len(plan.Post))
		}
		if transferErr == nil {
			transferErr = &Error{Kind: KindUnknown, Step: "transfer", Err: ctx.Err()}
		}
		report.Err = transferErr
		return report
	}

	var postErr error
	for _, step := range plan.Post {
		result, err := exec.Run(ctx, step.Argv(), nil)
		report.Post = append(report.Post, result)
		if err != nil {
			postErr = errors.Join(postErr, classifyPost(step, result, err))
		}
	}

	report.Err = errors.Join(transferErr, postErr)
	return report
}

func classifyRun(step string, err error, plan *Plan) error {
	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) {
		return Classify(step, exitErr.Result, plan.LocalPaths)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUnknown, Step: step, Err: err}
	}
	// a stage could not be started or its output file not opened
	return &Error{Kind: KindLocalFilesystem, Step: step, Err: err}
}

func classifyPost(step shell.Command, result *runner.Result, err error) error {
	e := &Error{Kind: KindLocalFilesystem, Step: step.Name, Err: err}
	if result != nil {
		e.ExitCode = result.ExitCode
		e.Detail = lastLine(string(result.Stderr))
	}
	return e
}

func stderrSuffix(result *runner.Result) string {
	if result == nil {
		return ""
	}
	if l := lastLine(string(result.Stderr)); l != "" {
		return ": " + l
	}
	return ""
}

// PrintCommand writes the heading and the command line
func (p *Plan) PrintCommand(w io.Writer) {
	fmt.Fprintln(w, p.Heading)
	fmt.Fprintln(w, p.CommandLine())
}

// Print writes both captured streams of every executed step
func (r *Report) Print(w io.Writer) {
	printResult(w, r.Transfer)
	for _, res := range r.Post {
		printResult(w, res)
	}
}

func printResult(w io.Writer, result *runner.Result) {
	if result == nil {
		return
	}
	if len(result.Stdout) > 0 {
		w.Write(result.Stdout)
		if result.Stdout[len(result.Stdout)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
	if len(result.Stderr) > 0 {
		w.Write(result.Stderr)
		if result.Stderr[len(result.Stderr)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
}
