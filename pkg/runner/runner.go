package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/monshunter/sshxfer/pkg/log"
)

// waitDelay bounds how long Run waits for grandchildren holding the output
// pipes after the process was killed
const waitDelay = 2 * time.Second

// Result holds everything a finished process produced
type Result struct {
	Argv     []string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Success reports whether the process exited with status 0
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Stage is one process of a pipeline
type Stage struct {
	Argv []string
	// StdoutFile, on the last stage, receives its stdout instead of the
	// captured buffer. The file is created or truncated before any stage
	// starts.
	StdoutFile string
}

// Executor runs processes to completion
type Executor interface {
	Run(ctx context.Context, argv []string, env []string) (*Result, error)
	RunPipeline(ctx context.Context, stages []Stage, env []string) (*Result, error)
}

// ExitError is returned when the process ran but exited non-zero
type ExitError struct {
	Result *Result
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Result.Argv[0], e.Result.ExitCode)
}

// Exec runs processes with os/exec
type Exec struct{}

// New creates an os/exec backed executor
func New() *Exec {
	return &Exec{}
}

// Run starts argv with the current environment plus env and waits for it.
// Stdout and stderr are captured separately. A non-zero exit status is
// returned as *ExitError together with the populated result.
func (e *Exec) Run(ctx context.Context, argv []string, env []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), env...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("Running: %s", strings.Join(argv, " "))
	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Argv:     argv,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	log.Debugf("%s finished in %s", argv[0], result.Duration.Round(time.Millisecond))

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			if ctx.Err() != nil {
				return result, fmt.Errorf("%s interrupted: %w", argv[0], ctx.Err())
			}
			return result, &ExitError{Result: result}
		}
		result.ExitCode = -1
		return result, fmt.Errorf("failed to run %s: %w", argv[0], err)
	}

	return result, nil
}

// RunPipeline connects the stdout of each stage to the stdin of the next
// and waits for all of them. Stderr of every stage goes to one buffer and
// the last stage's stdout to Result.Stdout. The reported status is the
// first stage that failed, so a producer failing silently is not masked
// by the consumer that then chokes on its truncated input. A stage killed
// by a signal only counts when no stage exited non-zero.
func (e *Exec) RunPipeline(ctx context.Context, stages []Stage, env []string) (*Result, error) {
	if len(stages) == 0 {
		return nil, errors.New("empty pipeline")
	}
	for _, stage := range stages {
		if len(stage.Argv) == 0 {
			return nil, errors.New("empty command")
		}
	}

	var stdout bytes.Buffer
	stderr := &lockedBuffer{}
	cmds := make([]*exec.Cmd, len(stages))
	names := make([]string, len(stages))
	for i, stage := range stages {
		cmd := exec.CommandContext(ctx, stage.Argv[0], stage.Argv[1:]...)
		cmd.Env = append(os.Environ(), env...)
		cmd.WaitDelay = waitDelay
		cmd.Stderr = stderr
		cmds[i] = cmd
		names[i] = strings.Join(stage.Argv, " ")
	}

	// parent copies of pipe ends and the output file, closed once every
	// child holds its own
	var files []*os.File
	closeFiles := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for i := 0; i < len(cmds)-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			closeFiles()
			return &Result{Argv: stages[i].Argv, ExitCode: -1}, fmt.Errorf("failed to create pipe: %w", err)
		}
		cmds[i].Stdout = w
		cmds[i+1].Stdin = r
		files = append(files, r, w)
	}

	last := stages[len(stages)-1]
	if last.StdoutFile != "" {
		f, err := os.Create(last.StdoutFile)
		if err != nil {
			closeFiles()
			return &Result{Argv: last.Argv, ExitCode: -1}, fmt.Errorf("failed to open %s: %w", last.StdoutFile, err)
		}
		cmds[len(cmds)-1].Stdout = f
		files = append(files, f)
	} else {
		cmds[len(cmds)-1].Stdout = &stdout
	}

	log.Debugf("Running: %s", strings.Join(names, " | "))
	start := time.Now()

	started := 0
	var startErr error
	for i, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			startErr = fmt.Errorf("failed to run %s: %w", stages[i].Argv[0], err)
			break
		}
		started++
	}
	closeFiles()

	if startErr != nil {
		for _, cmd := range cmds[:started] {
			cmd.Process.Kill()
			cmd.Wait()
		}
		return &Result{
			Argv:     stages[started].Argv,
			Stderr:   stderr.Bytes(),
			ExitCode: -1,
			Duration: time.Since(start),
		}, startErr
	}

	codes := make([]int, len(cmds))
	for i, cmd := range cmds {
		if err := cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				codes[i] = exitErr.ExitCode()
			} else {
				codes[i] = -1
			}
		}
	}

	failed := failedStage(codes)
	result := &Result{
		Argv:     stages[0].Argv,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	log.Debugf("pipeline finished in %s with statuses %v", result.Duration.Round(time.Millisecond), codes)
	if failed < 0 {
		return result, nil
	}

	result.Argv = stages[failed].Argv
	result.ExitCode = codes[failed]
	if ctx.Err() != nil {
		return result, fmt.Errorf("%s interrupted: %w", result.Argv[0], ctx.Err())
	}
	return result, &ExitError{Result: result}
}

// failedStage returns the index of the first stage that exited non-zero,
// else the first one that did not exit normally, else -1
func failedStage(codes []int) int {
	for i, code := range codes {
		if code > 0 {
			return i
		}
	}
	for i, code := range codes {
		if code != 0 {
			return i
		}
	}
	return -1
}

// lockedBuffer collects stderr written concurrently by several processes
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
