package shared

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name    string
		input   string
		want    log.Level
		wantErr bool
	}{
		{name: "debug", input: "DEBUG", want: log.DebugLevel},
		{name: "info", input: "info", want: log.InfoLevel},
		{name: "warn", input: "warn", want: log.WarnLevel},
		{name: "warning alias", input: "WARNING", want: log.WarnLevel},
		{name: "error", input: "Error", want: log.ErrorLevel},
		{name: "critical alias", input: "critical", want: log.FatalLevel},
		{name: "surrounding whitespace", input: "  info ", want: log.InfoLevel},
		{name: "unknown", input: "verbose", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFlag) {
					t.Fatalf("expected ErrInvalidFlag, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"removed": 2}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(compact) != `{"removed":2}` {
		t.Errorf("unexpected compact output %s", compact)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(pretty), "\n  \"removed\": 2") {
		t.Errorf("expected indented output, got %s", pretty)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := GenerateState()
	if a == b || len(a) != 32 {
		t.Errorf("expected distinct 32 character states, got %q and %q", a, b)
	}
}
