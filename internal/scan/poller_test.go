package scan

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteprobe/siteprobe-cli/internal/api"
)

// scriptedTask builds an envelope response for one poll fetch.
func scriptedTask(status Status) string {
	return fmt.Sprintf(`{"status":"success","data":{"taskId":"task-1","status":%q,"url":"https://example.com"}}`, status)
}

// pollFixture serves a scripted status sequence; statuses beyond the script
// repeat the last entry. An empty status means respond with HTTP 500.
func pollFixture(t *testing.T, statuses []Status) (*Client, *atomic.Int32) {
	t.Helper()
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(fetches.Add(1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		if statuses[i] == "" {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"status":"error","message":"engine hiccup"}`)
			return
		}
		fmt.Fprint(w, scriptedTask(statuses[i]))
	}))
	t.Cleanup(srv.Close)

	apiClient, err := api.New(api.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return NewClient(apiClient, nil), &fetches
}

// recordSleeps replaces the poll sleep with an instant recorder for the
// duration of the test.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var recorded []time.Duration
	prev := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		recorded = append(recorded, d)
		return nil
	}
	t.Cleanup(func() { sleep = prev })
	return &recorded
}

func TestPollDelaySchedule(t *testing.T) {
	sleeps := recordSleeps(t)
	c, fetches := pollFixture(t, []Status{
		StatusPending, StatusScanning, StatusScanning, StatusScanning, StatusCompleted,
	})

	var progress []Status
	task, err := c.Poll(context.Background(), "task-1", PollOptions{
		OnProgress: func(task *Task) { progress = append(progress, task.Status) },
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.EqualValues(t, 5, fetches.Load())

	// Pending holds the base delay; scanning grows it linearly to the cap.
	assert.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 3 * time.Second, 4 * time.Second,
	}, *sleeps)
	assert.Equal(t, []Status{
		StatusPending, StatusScanning, StatusScanning, StatusScanning, StatusCompleted,
	}, progress)
}

func TestPollDelayResetsWhilePending(t *testing.T) {
	sleeps := recordSleeps(t)
	c, _ := pollFixture(t, []Status{
		StatusPending, StatusPending, StatusScanning, StatusScanning, StatusCompleted,
	})

	_, err := c.Poll(context.Background(), "task-1", PollOptions{})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{
		1 * time.Second, 1 * time.Second, 2 * time.Second, 3 * time.Second,
	}, *sleeps)
}

func TestPollDelayCapsAtMax(t *testing.T) {
	sleeps := recordSleeps(t)
	c, _ := pollFixture(t, []Status{
		StatusScanning, StatusScanning, StatusScanning, StatusScanning, StatusScanning, StatusCompleted,
	})

	_, err := c.Poll(context.Background(), "task-1", PollOptions{})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{
		2 * time.Second, 3 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second,
	}, *sleeps)
}

func TestPollImmediateTerminal(t *testing.T) {
	sleeps := recordSleeps(t)

	t.Run("completed", func(t *testing.T) {
		c, fetches := pollFixture(t, []Status{StatusCompleted})
		task, err := c.Poll(context.Background(), "task-1", PollOptions{})
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, task.Status)
		assert.EqualValues(t, 1, fetches.Load())
	})

	t.Run("failed", func(t *testing.T) {
		c, _ := pollFixture(t, []Status{StatusFailed})
		task, err := c.Poll(context.Background(), "task-1", PollOptions{})
		require.NoError(t, err, "a failed scan is a result, not a poll error")
		assert.Equal(t, StatusFailed, task.Status)
	})

	assert.Empty(t, *sleeps)
}

func TestPollExhaustionIsTimeout(t *testing.T) {
	recordSleeps(t)
	c, fetches := pollFixture(t, []Status{StatusScanning})

	_, err := c.Poll(context.Background(), "task-1", PollOptions{MaxAttempts: 3})
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindTimeout), "exhaustion must map to timeout, got %v", err)
	assert.EqualValues(t, 3, fetches.Load())
}

func TestPollTransientErrorRetries(t *testing.T) {
	recordSleeps(t)
	c, fetches := pollFixture(t, []Status{"", StatusCompleted})

	task, err := c.Poll(context.Background(), "task-1", PollOptions{})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.EqualValues(t, 2, fetches.Load())
}

func TestPollPersistentErrorSurfacesLastError(t *testing.T) {
	recordSleeps(t)
	c, fetches := pollFixture(t, []Status{""})

	_, err := c.Poll(context.Background(), "task-1", PollOptions{MaxAttempts: 2})
	require.Error(t, err)
	// The fetch failure itself, not the attempt-budget timeout.
	assert.True(t, api.IsKind(err, api.KindServer), "got %v", err)
	assert.EqualValues(t, 2, fetches.Load())
}

func TestPollCancelledDuringSleep(t *testing.T) {
	c, _ := pollFixture(t, []Status{StatusPending})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := c.Poll(ctx, "task-1", PollOptions{InitialDelay: 10 * time.Second})
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindTimeout))
}
