package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/cachers"
)

func TestWarnWritesSortedFields(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, nil))}

	l.Warn("store released while still in use", cachers.Fields{"remaining": 2, "namespace": "ns"})

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Fatalf("missing level: %s", out)
	}
	if i, j := strings.Index(out, "namespace=ns"), strings.Index(out, "remaining=2"); i < 0 || j < 0 || i > j {
		t.Fatalf("fields missing or unsorted: %s", out)
	}
}

func TestDebugFilteredByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo}))}
	l.Debug("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %s", buf.String())
	}
}
