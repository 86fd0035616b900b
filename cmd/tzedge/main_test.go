package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"tzedge/internal/core/convert"
	"tzedge/internal/core/tzrule"
	perr "tzedge/internal/platform/errors"
	kit "tzedge/internal/platform/testkit"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runApp(t, args...)
	return out, err
}

// runApp executes args and also returns what main would print on stderr for a failure
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app, err := newCLI(&out, settings{Zone: tzrule.NewYorkZone, Format: formatText, ScanStep: 6 * time.Hour})
	if err != nil {
		t.Fatalf("newCLI: %v", err)
	}
	app.root.SetArgs(args)
	err = app.root.ExecuteContext(context.Background())
	if err != nil {
		app.reportError(&errOut, err)
	}
	return out.String(), errOut.String(), err
}

func TestConvertCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"before cutover", []string{"convert", "2023-03-12T01:40:00.000"},
			"2023-03-12T01:40:00.000 America/New_York -> 2023-03-12T06:40:00.000Z (EST, UTC-05:00)\n"},
		{"inside gap", []string{"convert", "2023-03-12T02:40:00.000"},
			"2023-03-12T02:40:00.000 America/New_York -> 2023-03-12T06:40:00.000Z (EDT, UTC-04:00) [non-existent]\n"},
		{"after cutover", []string{"convert", "--zone", "america/new_york", "2023-03-12T03:40:00.000"},
			"2023-03-12T03:40:00.000 America/New_York -> 2023-03-12T07:40:00.000Z (EDT, UTC-04:00)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvertCommand_JSON(t *testing.T) {
	got, err := run(t, "convert", "-o", "json", "2023-03-12T02:40:00.000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload struct {
		UTC    string `json:"utc"`
		Kind   string `json:"kind"`
		Abbrev string `json:"abbrev"`
	}
	if err := json.Unmarshal([]byte(got), &payload); err != nil {
		t.Fatalf("invalid json %q: %v", got, err)
	}
	if payload.UTC != "2023-03-12T06:40:00.000Z" || payload.Kind != "non-existent" || payload.Abbrev != "EDT" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestConvertCommand_Errors(t *testing.T) {
	_, err := run(t, "convert", "--zone", "Europe/Paris", "2023-03-12T01:40:00.000")
	kit.MustCode(t, err, perr.ErrorCodeUnsupportedZone)
	if perr.ExitCode(err) != 4 {
		t.Fatalf("exit code = %d", perr.ExitCode(err))
	}

	_, err = run(t, "convert", "2023-02-30T01:40:00.000")
	kit.MustCode(t, err, perr.ErrorCodeInvalidCivilTime)

	_, err = run(t, "convert")
	kit.MustCode(t, err, perr.ErrorCodeInvalidArgument)

	_, err = run(t, "--format", "xml", "convert", "2023-03-12T01:40:00.000")
	kit.MustCode(t, err, perr.ErrorCodeInvalidArgument)
}

func TestPriorWeekCommand(t *testing.T) {
	got, err := run(t, "prior-week", "2023-03-12T01:40:00.000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2023-03-05T23:59:59.999\n" {
		t.Fatalf("output = %q", got)
	}

	got, err = run(t, "prior-week", "--format", "JSON", "2023-03-12T02:40:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kit.MustContain(t, got, `"end_of_prior_week": "2023-03-05T23:59:59.999"`)
}

func TestOffsetCommand(t *testing.T) {
	got, err := run(t, "offset", "2023-03-12T00:40:00.000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2023-03-12T05:40:00.000Z\n" {
		t.Fatalf("output = %q", got)
	}

	got, err = run(t, "offset", "--minutes", "-240", "2023-03-12T03:01:00.000")
	if err != nil || got != "2023-03-12T07:01:00.000Z\n" {
		t.Fatalf("output = %q, err = %v", got, err)
	}

	_, err = run(t, "offset", "--minutes", "2000", "2023-03-12T03:01:00.000")
	kit.MustCode(t, err, perr.ErrorCodeInvalidArgument)
}

func TestTransitionsCommand(t *testing.T) {
	got, err := run(t, "transitions", "--from", "2023-03-01", "--to", "2023-04-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2023-03-12T07:00:00.000Z EDT offset=-240 dst=true\n" {
		t.Fatalf("output = %q", got)
	}

	got, err = run(t, "transitions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(got, "\n"); n != 2 {
		t.Fatalf("expected spring and fall in 2023, got %q", got)
	}

	_, err = run(t, "transitions", "--zone", "Mars/Olympus_Mons")
	kit.MustCode(t, err, perr.ErrorCodeUnsupportedZone)

	_, err = run(t, "transitions", "--from", "March")
	kit.MustCode(t, err, perr.ErrorCodeInvalidArgument)
}

func TestVersionCommand(t *testing.T) {
	got, err := run(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kit.MustContain(t, got, "tzedge dev")
}

func TestNewRootCmd_RejectsBadRule(t *testing.T) {
	_, err := newCLI(&bytes.Buffer{}, settings{}, convert.WithRule(tzrule.Rule{}))
	kit.MustCode(t, err, perr.ErrorCodeInvalidRule)
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("TZEDGE_ZONE", "")
	t.Setenv("TZEDGE_FORMAT", "")
	t.Setenv("TZEDGE_SCAN_STEP", "")
	s := loadSettings()
	if s.Zone != tzrule.NewYorkZone || s.Format != formatText || s.ScanStep != 6*time.Hour {
		t.Fatalf("defaults = %+v", s)
	}

	t.Setenv("TZEDGE_ZONE", "Test/Fixed")
	t.Setenv("TZEDGE_FORMAT", "JSON")
	t.Setenv("TZEDGE_SCAN_STEP", "1h")
	s = loadSettings()
	if s.Zone != "Test/Fixed" || s.Format != formatJSON || s.ScanStep != time.Hour {
		t.Fatalf("env = %+v", s)
	}

	t.Setenv("TZEDGE_FORMAT", "yaml")
	kit.MustPanic(t, func() { _ = loadSettings() })
}

func TestReportError_JSONUsesWirePayload(t *testing.T) {
	_, errOut, err := runApp(t, "convert", "--format", "json", "--zone", "Europe/Paris", "2023-03-12T01:40:00.000")
	kit.MustCode(t, err, perr.ErrorCodeUnsupportedZone)

	var payload struct {
		Error perr.Wire `json:"error"`
	}
	if jerr := json.Unmarshal([]byte(errOut), &payload); jerr != nil {
		t.Fatalf("stderr is not json %q: %v", errOut, jerr)
	}
	if payload.Error.Code != "unsupported_zone" || payload.Error.Field != "zone" {
		t.Fatalf("wire payload = %+v", payload.Error)
	}
	kit.MustContain(t, payload.Error.Message, "Europe/Paris")
}

func TestReportError_TextAndBadFormatFallBackToPlain(t *testing.T) {
	_, errOut, err := runApp(t, "convert", "2023-02-30T01:40:00.000")
	kit.MustCode(t, err, perr.ErrorCodeInvalidCivilTime)
	if !strings.HasPrefix(errOut, "error: ") {
		t.Fatalf("text stderr = %q", errOut)
	}

	_, errOut, err = runApp(t, "--format", "xml", "version")
	kit.MustCode(t, err, perr.ErrorCodeInvalidArgument)
	if !strings.HasPrefix(errOut, "error: ") {
		t.Fatalf("bad format stderr = %q", errOut)
	}
}
