package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, input string, args ...string) string {
	t.Helper()

	t.Setenv("LOG_LEVEL", "disabled")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	return out.String()
}

func TestAccountsCmd(t *testing.T) {
	out := execute(t, "", "accounts")

	for _, want := range []string{"NUMBER", "1001", "Alice", "5000.00", "1002", "15000.50", "1003", "Charlie", "250.75"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestLedgerConsistencyCmd(t *testing.T) {
	out := execute(t, "", "ledger", "consistency")

	if !strings.Contains(out, "Consistency check PASSED") || !strings.Contains(out, "Total balance: 20251.25") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRootRunsTerminal(t *testing.T) {
	out := execute(t, "1\n1001\n1234\n4\n1002\n100\n1\n7\n2\n")

	for _, want := range []string{
		"Login successful. Welcome, Alice!",
		"Transferred 100.00 to 1002. New balance: 4900.00",
		"Current balance: 4900.00",
		"Goodbye!",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRootWritesMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atm.prom")
	t.Setenv("METRICS_FILE", path)

	execute(t, "1\n1001\n0000\n2\n")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected metrics file: %v", err)
	}

	text := string(data)
	if !strings.Contains(text, "goatm_accounts_opened_total 3") {
		t.Fatalf("expected opened accounts counter, got:\n%s", text)
	}
	if !strings.Contains(text, `goatm_auth_attempts_total{status="failure"} 1`) {
		t.Fatalf("expected failed auth counter, got:\n%s", text)
	}
	if !strings.Contains(text, "goatm_events_published_total 4") {
		t.Fatalf("expected flushed events to be counted, got:\n%s", text)
	}
}

func TestLogLevelFlagOverridesEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "disabled")
	t.Setenv("LOG_FORMAT", "json")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--log-level", "debug", "accounts"})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(errOut.String(), "registry seeded") {
		t.Fatalf("expected debug logs on stderr, got %q", errOut.String())
	}
}
