package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/monshunter/sshxfer/pkg/log"
)

// exitInterrupted is the conventional status for a process stopped by SIGINT
const exitInterrupted = 130

// GracefulShutdownHandler cancels the running transfer on SIGINT/SIGTERM.
// A second signal exits immediately.
type GracefulShutdownHandler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	done     chan struct{}
	exitFunc func(int) // Allow injection of exit function for testing
}

// NewGracefulShutdownHandler creates a handler whose context is also
// cancelled after timeout when timeout is positive
func NewGracefulShutdownHandler(timeout time.Duration) *GracefulShutdownHandler {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	return newGracefulShutdownHandler(timeout, sigChan)
}

func newGracefulShutdownHandler(timeout time.Duration, sigChan chan os.Signal) *GracefulShutdownHandler {
	ctx, cancel := context.WithCancel(context.Background())
	if timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, timeout)
		parentCancel := cancel
		cancel = func() {
			timeoutCancel()
			parentCancel()
		}
	}

	handler := &GracefulShutdownHandler{
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  sigChan,
		done:     make(chan struct{}),
		exitFunc: os.Exit,
	}
	go handler.handleSignals()
	return handler
}

// Context returns the context that will be cancelled on shutdown
func (h *GracefulShutdownHandler) Context() context.Context {
	return h.ctx
}

// Close stops signal handling and cancels the context
func (h *GracefulShutdownHandler) Close() {
	select {
	case <-h.done:
		return
	default:
	}
	signal.Stop(h.sigChan)
	close(h.done)
	h.cancel()
}

// SetExitFunc sets a custom exit function (useful for testing)
func (h *GracefulShutdownHandler) SetExitFunc(exitFunc func(int)) {
	h.exitFunc = exitFunc
}

func (h *GracefulShutdownHandler) handleSignals() {
	interrupted := false
	for {
		select {
		case sig := <-h.sigChan:
			if interrupted {
				log.Errorf("Received signal %v again, exiting", sig)
				h.exitFunc(exitInterrupted)
				return
			}
			interrupted = true
			log.Warnf("Received signal %v, stopping transfer...", sig)
			h.cancel()
		case <-h.done:
			return
		}
	}
}
