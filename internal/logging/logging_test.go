package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(orig) })
	fn()
	return buf.String()
}

func TestDebugfSuppressedWithoutVerbose(t *testing.T) {
	l := New(false)
	out := captureLog(t, func() { l.Debugf("should not appear") })
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
}

func TestDebugfEmitsWhenVerbose(t *testing.T) {
	l := New(true)
	out := captureLog(t, func() { l.Debugf("hello %d", 7) })
	if !strings.Contains(out, "hello 7") {
		t.Fatalf("output = %q, want it to contain %q", out, "hello 7")
	}
}

func TestDebugfNilReceiverIsNoop(t *testing.T) {
	var l *Logger
	out := captureLog(t, func() { l.Debugf("unreachable") })
	if out != "" {
		t.Fatalf("expected no output from a nil *Logger, got %q", out)
	}
}

func TestErrorfReturnsWrappedErrorAndLogs(t *testing.T) {
	l := New(false)
	var err error
	out := captureLog(t, func() { err = l.Errorf("bad state: %s", "oops") })
	if err == nil || err.Error() != "bad state: oops" {
		t.Fatalf("err = %v, want %q", err, "bad state: oops")
	}
	if !strings.Contains(out, "ERROR: bad state: oops") {
		t.Fatalf("output = %q, want it to contain the error", out)
	}
}
