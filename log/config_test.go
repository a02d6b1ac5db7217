package log

import (
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"bogus", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelTrace, "trace"},
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{" text ", FormatText},
		{"bogus", DefaultFormat},
		{"", DefaultFormat},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.input); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithTimeLayout_NamedLayouts(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"RFC3339", time.RFC3339},
		{"rfc3339nano", time.RFC3339Nano},
		{"Kitchen", time.Kitchen},
		{"none", ""},
		{"2006-01-02", "2006-01-02"}, // verbatim layout
	}

	for _, tt := range tests {
		c := apply(config{}, WithTimeLayout(tt.input))
		if c.timeLayout != tt.want {
			t.Errorf("WithTimeLayout(%q) = %q, want %q",
				tt.input, c.timeLayout, tt.want)
		}
	}
}

func TestMakeConfig_NilWriterDiscards(t *testing.T) {
	c := makeConfig(nil)
	if c.output == nil {
		t.Error("expected nil writer replaced with a discard sink")
	}
}
