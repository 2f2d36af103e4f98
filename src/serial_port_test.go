package spectracam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func feedString(acc *lineAccum, s string) []string {
	var lines []string
	for i := 0; i < len(s); i++ {
		if line, ok := acc.feed(s[i]); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestLineAccumBasicFraming(t *testing.T) {
	var acc lineAccum

	var lines = feedString(&acc, "OK\nHW1.0\n")
	assert.Equal(t, []string{"OK", "HW1.0"}, lines)
}

func TestLineAccumCarriageReturnTerminates(t *testing.T) {
	var acc lineAccum

	var lines = feedString(&acc, "aS,AS,tCS\r\n")

	/* The CR completes the line; the LF that follows just resets
	 * an empty buffer and dispatches nothing. */
	assert.Equal(t, []string{"aS,AS,tCS"}, lines)
}

func TestLineAccumSplitAcrossReads(t *testing.T) {
	var acc lineAccum

	var lines = feedString(&acc, "AS72")
	assert.Empty(t, lines)

	lines = feedString(&acc, "65x\n")
	assert.Equal(t, []string{"AS7265x"}, lines)
}

func TestLineAccumEmptyLinesDropped(t *testing.T) {
	var acc lineAccum

	var lines = feedString(&acc, "\n\r\n\nOK\n")
	assert.Equal(t, []string{"OK"}, lines)
}

func TestLineAccumOverflowTruncates(t *testing.T) {
	var acc lineAccum

	var long = strings.Repeat("x", serialBufferSize+50)
	var lines = feedString(&acc, long+"\n")

	assert.Len(t, lines, 1)
	assert.Len(t, lines[0], serialBufferSize)
}

func TestLineAccumChunkingInvariance(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var count = rapid.IntRange(1, 8).Draw(t, "count")

		var want []string
		var stream strings.Builder
		for i := 0; i < count; i++ {
			var line = rapid.StringMatching(`[ -~]{1,40}`).Draw(t, "line")
			want = append(want, line)
			stream.WriteString(line)
			if rapid.Bool().Draw(t, "crlf") {
				stream.WriteString("\r\n")
			} else {
				stream.WriteString("\n")
			}
		}

		/* However the bytes arrive, the dispatched lines are the
		 * same. */
		var acc lineAccum
		var got []string
		for rest := stream.String(); len(rest) > 0; {
			var n = rapid.IntRange(1, len(rest)).Draw(t, "chunk")
			got = append(got, feedString(&acc, rest[:n])...)
			rest = rest[n:]
		}

		if len(got) != len(want) {
			t.Fatalf("got %d lines, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("line %d: got %q, want %q", i, got[i], want[i])
			}
		}
	})
}

func TestSendLineRejectsEmptyAndClosed(t *testing.T) {
	var sched = newTestSched()
	var recorder sinkRecorder

	var sp = NewSerialPort(sched, "USB0", 115200, recorder.sink())

	var _, err = sp.SendLine("AT")
	assert.Error(t, err, "port not open")

	_, err = sp.SendLine("")
	assert.Error(t, err, "empty line")
}

func TestSerialPortUnknownIdentifier(t *testing.T) {
	var sched = newTestSched()
	var recorder sinkRecorder

	var sp = NewSerialPort(sched, "USB9", 115200, recorder.sink())

	var err = sp.Setup()
	assert.ErrorIs(t, err, ErrConfig)
}
