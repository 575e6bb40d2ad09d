// Package speech abstracts voice capture behind a capability
// interface. The terminal has no microphone API of its own, so
// recognition shells out to an external command that prints a
// transcript on stdout. When no command is configured the capability
// reports itself unsupported and the UI hides the control.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// Recognizer captures one utterance per Start call.
type Recognizer interface {
	// Supported reports whether recognition can run at all.
	Supported() bool
	// Start begins a capture. onResult receives the transcript, which
	// may be empty; onError receives capture failures. One of the two
	// is always called unless Stop cancels the capture first.
	Start(ctx context.Context, onResult func(string), onError func(error)) error
	// Stop cancels an in-flight capture.
	Stop()
}

type unsupported struct{}

func (unsupported) Supported() bool { return false }
func (unsupported) Start(context.Context, func(string), func(error)) error {
	return fmt.Errorf("speech recognition is not available")
}
func (unsupported) Stop() {}

// Unsupported returns a recognizer that refuses to start.
func Unsupported() Recognizer {
	return unsupported{}
}

// CommandRecognizer runs an external program and treats its trimmed
// stdout as the transcript.
type CommandRecognizer struct {
	name   string
	args   []string
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCommandRecognizer builds a recognizer from a shell-style command
// line. An empty command yields the unsupported recognizer.
func NewCommandRecognizer(command string, logger *slog.Logger) Recognizer {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Unsupported()
	}
	return &CommandRecognizer{
		name:   fields[0],
		args:   fields[1:],
		logger: logger,
	}
}

func (r *CommandRecognizer) Supported() bool { return true }

// Start launches the capture command. The transcript callback fires
// even for empty output so callers can always leave recording state.
func (r *CommandRecognizer) Start(ctx context.Context, onResult func(string), onError func(error)) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return fmt.Errorf("capture already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	cmd := exec.CommandContext(ctx, r.name, r.args...)

	go func() {
		out, err := cmd.Output()

		r.mu.Lock()
		cancelled := r.cancel == nil
		r.cancel = nil
		r.mu.Unlock()
		cancel()

		if cancelled {
			return
		}
		if err != nil {
			r.logger.Warn("speech capture failed", "command", r.name, "error", err)
			onError(fmt.Errorf("failed to run speech command: %w", err))
			return
		}
		onResult(strings.TrimSpace(string(out)))
	}()

	return nil
}

// Stop cancels the running capture, if any. Neither callback fires
// for a stopped capture.
func (r *CommandRecognizer) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
