package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	origLevel := GetLevel()
	code := m.Run()
	SetLevel(origLevel)
	SetOutput(os.Stderr)
	os.Exit(code)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   LogLevel
		wantOK bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"Warn", LevelWarn, true},
		{"WARNING", LevelWarn, true},
		{"error", LevelError, true},
		{"fatal", LevelFatal, true},
		{" info ", LevelInfo, true},
		{"verbose", LevelInfo, false},
		{"", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)",
					tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel(LevelWarn)
	Debugf("hidden debug %d", 1)
	Infof("hidden info")
	Warnf("visible warn")
	Errorf("visible error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below threshold were logged: %q", out)
	}
	if !strings.Contains(out, "visible warn") || !strings.Contains(out, "visible error") {
		t.Errorf("messages at or above threshold missing: %q", out)
	}
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "[ERROR]") {
		t.Errorf("level tags missing: %q", out)
	}
}

func TestSetLevelRoundTrip(t *testing.T) {
	for _, lvl := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal} {
		SetLevel(lvl)
		if got := GetLevel(); got != lvl {
			t.Errorf("GetLevel() = %v after SetLevel(%v)", got, lvl)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelDebug.String() != "DEBUG" || LogLevel(99).String() != "UNKNOWN" {
		t.Errorf("LogLevel.String() mapping broken")
	}
}
