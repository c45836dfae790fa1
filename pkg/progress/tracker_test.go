package progress

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWriterCountsBytes tests that Writer forwards data and counts it
func TestWriterCountsBytes(t *testing.T) {
	tracker := New(slog.New(slog.NewTextHandler(io.Discard, nil)), "test", 11)

	var out bytes.Buffer
	w := &Writer{W: &out, T: tracker}
	_, err := io.Copy(w, strings.NewReader("hello world"))
	require.NoError(t, err)

	require.Equal(t, "hello world", out.String())
	require.EqualValues(t, 11, tracker.Processed())
	require.EqualValues(t, 11, tracker.Total())
}

// TestWriterWithoutTracker tolerates a nil tracker
func TestWriterWithoutTracker(t *testing.T) {
	var out bytes.Buffer
	w := &Writer{W: &out}
	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

// TestStartStop tests the reporting lifecycle and the final summary
func TestStartStop(t *testing.T) {
	var logs bytes.Buffer
	tracker := New(slog.New(slog.NewTextHandler(&logs, nil)), "backup", 4096)
	tracker.SetInterval(time.Millisecond)

	tracker.Start()
	tracker.Start()
	tracker.AddBytes(2048)
	time.Sleep(3 * tick)
	tracker.AddBytes(2048)
	tracker.Stop()
	tracker.Stop()

	output := logs.String()
	require.Contains(t, output, "msg=progress")
	require.Contains(t, output, "op=backup")
	require.Contains(t, output, "msg=completed")
	require.Contains(t, output, "processed=\"4.0 KiB\"")
	require.EqualValues(t, 4096, tracker.Processed())
}

// TestRestart tests that a stopped tracker can run again from zero
func TestRestart(t *testing.T) {
	tracker := New(slog.New(slog.NewTextHandler(io.Discard, nil)), "restore", 0)
	tracker.Start()
	tracker.AddBytes(10)
	tracker.Stop()

	tracker.Start()
	require.Zero(t, tracker.Processed())
	tracker.Stop()
}

func TestETA(t *testing.T) {
	testCases := []struct {
		remaining, rate uint64
		want            string
	}{
		{remaining: 100, rate: 0, want: "calculating..."},
		{remaining: 100, rate: 10, want: "10 seconds"},
		{remaining: 900, rate: 10, want: "1.5 minutes"},
		{remaining: 72000, rate: 10, want: "2.0 hours"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, eta(tc.remaining, tc.rate))
	}
}
