package scan

import (
	"context"
	"time"

	"github.com/siteprobe/siteprobe-cli/internal/api"
)

// PollOptions tunes the status poll loop. Zero values take the defaults.
type PollOptions struct {
	// MaxAttempts bounds fetches; both successful and failed fetches count.
	MaxAttempts int

	// InitialDelay is the sleep after a pending snapshot and the starting
	// delay while scanning.
	InitialDelay time.Duration

	// MaxDelay caps the growing delay while scanning.
	MaxDelay time.Duration

	// Step is the linear delay increment applied per scanning snapshot.
	Step time.Duration

	// OnProgress receives every fetched snapshot, terminal ones included,
	// in fetch order, before the loop evaluates termination.
	OnProgress func(*Task)
}

const (
	defaultMaxAttempts  = 60
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 4 * time.Second
	defaultStep         = 1 * time.Second
)

func (o *PollOptions) applyDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = defaultInitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = defaultMaxDelay
	}
	if o.Step <= 0 {
		o.Step = defaultStep
	}
}

// sleep is overridable in tests to record delays without waiting.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poll fetches the task status until it reaches a terminal state. While the
// task is scanning the delay grows by Step per iteration up to MaxDelay;
// while it is still pending the delay resets to InitialDelay so the loop
// stays responsive to the scan starting. Transient fetch errors consume an
// attempt and the loop sleeps and retries; the last error is surfaced only
// once attempts are exhausted. Exhausting MaxAttempts without a terminal
// snapshot fails with a Timeout kind, distinct from any transport error.
//
// The loop is strictly sequential; callers must not start two pollers for
// the same task. Cancelling ctx aborts both sleeps and in-flight fetches.
func (c *Client) Poll(ctx context.Context, taskID string, opts PollOptions) (*Task, error) {
	opts.applyDefaults()

	attempts := 0
	delay := opts.InitialDelay

	for attempts < opts.MaxAttempts {
		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			attempts++
			if attempts >= opts.MaxAttempts {
				return nil, err
			}
			c.log.Debug(ctx, "poll fetch failed, retrying", "taskId", taskID, "attempt", attempts, "error", err)
			if sleepErr := sleep(ctx, delay); sleepErr != nil {
				return nil, transportCancel(sleepErr)
			}
			continue
		}

		if opts.OnProgress != nil {
			opts.OnProgress(task)
		}

		if task.Status.Terminal() {
			return task, nil
		}

		if task.Status == StatusScanning {
			delay = min(delay+opts.Step, opts.MaxDelay)
		} else {
			delay = opts.InitialDelay
		}

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return nil, transportCancel(sleepErr)
		}
		attempts++
	}

	return nil, &api.Error{
		Kind:    api.KindTimeout,
		Message: "scan task did not finish within the attempt budget",
	}
}

func transportCancel(err error) *api.Error {
	return &api.Error{Kind: api.KindTimeout, Message: "polling cancelled", Err: err}
}
