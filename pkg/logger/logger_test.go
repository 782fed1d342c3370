package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		t.Fatalf("unparseable log line %q: %v", line, err)
	}
	return fields
}

func TestInfoCarriesServiceName(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := New(Options{ServiceName: "storefront", Level: zerolog.InfoLevel, Output: &buf})

	logg.Info(context.Background(), "catalogue loaded")

	fields := decodeLine(t, &buf)
	if fields["service"] != "storefront" {
		t.Fatalf("missing service field in %v", fields)
	}
	if fields["message"] != "catalogue loaded" {
		t.Fatalf("missing message in %v", fields)
	}
}

func TestContextFieldsAccumulate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := New(Options{ServiceName: "storefront", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithCommand(context.Background(), "checkout")
	ctx = logg.WithOrderID(ctx, 42)
	logg.Info(ctx, "order created")

	fields := decodeLine(t, &buf)
	if fields["command"] != "checkout" {
		t.Fatalf("missing command field in %v", fields)
	}
	if fields["order_id"] != float64(42) {
		t.Fatalf("missing order_id field in %v", fields)
	}
}

func TestContextFieldsDoNotLeakAcrossContexts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := New(Options{ServiceName: "storefront", Level: zerolog.InfoLevel, Output: &buf})

	logg.WithOrderID(context.Background(), 42)
	logg.Info(context.Background(), "plain entry")

	fields := decodeLine(t, &buf)
	if _, ok := fields["order_id"]; ok {
		t.Fatalf("order_id leaked into an unrelated context: %v", fields)
	}
}

func TestWarnAndErrorAttachCause(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := New(Options{ServiceName: "storefront", Level: zerolog.WarnLevel, Output: &buf})

	logg.Warn(context.Background(), "confirm-paid failed", context.DeadlineExceeded)

	fields := decodeLine(t, &buf)
	if fields["error"] != context.DeadlineExceeded.Error() {
		t.Fatalf("missing error field in %v", fields)
	}

	buf.Reset()
	logg.Error(context.Background(), "state file unusable", context.DeadlineExceeded)
	fields = decodeLine(t, &buf)
	if _, ok := fields["stack"]; !ok {
		t.Fatalf("error entries must carry a stack, got %v", fields)
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := New(Options{ServiceName: "storefront", Level: zerolog.InfoLevel, Output: &buf})

	logg.Debug(context.Background(), "invisible")
	if buf.Len() != 0 {
		t.Fatalf("debug entry leaked through info level: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input    string
		expected zerolog.Level
	}{
		{input: "debug", expected: zerolog.DebugLevel},
		{input: " WARN ", expected: zerolog.WarnLevel},
		{input: "", expected: zerolog.InfoLevel},
		{input: "verbose", expected: zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.input); got != tc.expected {
			t.Errorf("ParseLevel(%q) = %s, expected %s", tc.input, got, tc.expected)
		}
	}
}
