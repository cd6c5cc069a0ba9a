// Package worker runs one-shot classifier processes. Each run writes a JSON
// document to the process stdin and reads exactly one JSON object from its
// stdout. Runs are bounded by a semaphore and a per-call timeout.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"golang.org/x/sync/semaphore"
)

// Observer receives run outcomes. *metrics.Metrics implements it.
type Observer interface {
	ObserveWorkerRun(command string, d time.Duration, err error)
	WorkerStarted()
	WorkerFinished()
}

type nopObserver struct{}

func (nopObserver) ObserveWorkerRun(string, time.Duration, error) {}
func (nopObserver) WorkerStarted()                                {}
func (nopObserver) WorkerFinished()                               {}

// waitDelay bounds how long Run waits for pipes after the process is killed.
const waitDelay = 2 * time.Second

type Runner struct {
	sem      *semaphore.Weighted
	timeout  time.Duration
	logger   logging.Logger
	observer Observer

	// newCommand is a test seam for exec.CommandContext.
	newCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewRunner(maxWorkers int, timeout time.Duration, logger logging.Logger, observer Observer) *Runner {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Runner{
		sem:        semaphore.NewWeighted(int64(maxWorkers)),
		timeout:    timeout,
		logger:     logger.With("module", "worker"),
		observer:   observer,
		newCommand: exec.CommandContext,
	}
}

// Run executes argv with in encoded on stdin and decodes stdout into out.
// A non-zero exit, output on stderr, a timeout or anything other than a
// single JSON object on stdout yields common.ErrInferenceFailure.
func (r *Runner) Run(ctx context.Context, argv []string, in any, out any) (err error) {
	if len(argv) == 0 {
		return fmt.Errorf("%w: empty worker command", common.ErrInferenceFailure)
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: waiting for worker slot: %w", common.ErrInferenceFailure, err)
	}
	defer r.sem.Release(1)

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode input: %w", common.ErrInferenceFailure, err)
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	r.observer.WorkerStarted()
	defer func() {
		r.observer.WorkerFinished()
		r.observer.ObserveWorkerRun(argv[0], time.Since(start), err)
	}()

	var stdout, stderr bytes.Buffer
	cmd := r.newCommand(runCtx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	runErr := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: worker timed out after %s", common.ErrInferenceFailure, r.timeout)
	}
	if runErr != nil {
		return fmt.Errorf("%w: worker exited: %w: %s", common.ErrInferenceFailure, runErr, tail(stderr.String()))
	}
	if stderr.Len() > 0 {
		return fmt.Errorf("%w: worker wrote to stderr: %s", common.ErrInferenceFailure, tail(stderr.String()))
	}
	if err := decodeSingle(stdout.Bytes(), out); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInferenceFailure, err)
	}

	r.logger.Debug(ctx, "worker finished", "command", argv[0], "duration", time.Since(start))
	return nil
}

func decodeSingle(b []byte, out any) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("worker output is not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode worker output: %w", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return errors.New("worker output has trailing data")
	}
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	const max = 512
	if len(s) > max {
		return "..." + s[len(s)-max:]
	}
	return s
}
