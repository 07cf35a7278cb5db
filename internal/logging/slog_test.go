package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTextLoggerVerbosity(t *testing.T) {
	cases := []struct {
		verbosity int
		wantDebug bool
		wantInfo  bool
	}{
		{0, false, false},
		{1, false, true},
		{2, true, true},
		{5, true, true},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		log := NewTextLogger(&buf, tc.verbosity)
		ctx := context.Background()

		log.Debug(ctx, "debug line")
		log.Info(ctx, "info line")
		log.Warn(ctx, "warn line")

		out := buf.String()
		assert.Equal(t, tc.wantDebug, strings.Contains(out, "debug line"), "verbosity %d", tc.verbosity)
		assert.Equal(t, tc.wantInfo, strings.Contains(out, "info line"), "verbosity %d", tc.verbosity)
		assert.Contains(t, out, "warn line", "verbosity %d", tc.verbosity)
	}
}

func TestWithCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, 1).With("taskId", "task-1")

	log.Info(context.Background(), "snapshot fetched")
	assert.Contains(t, buf.String(), "taskId=task-1")
}

func TestNopDiscardsEverything(t *testing.T) {
	var log Logger = Nop{}
	log.Error(context.Background(), "nothing to see")
	assert.NotNil(t, log.With("k", "v"))
}
