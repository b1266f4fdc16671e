package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		outputFormat = ""
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "--config", filepath.Join(t.TempDir(), "none.json"), "version")
	if err != nil || !strings.Contains(out, "usage-pricing version") {
		t.Errorf("version = %q, %v", out, err)
	}
}

func TestValueCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.json", `{"ledger":{"backend":"memory"}}`)
	schedule := writeFile(t, dir, "schedule.json", `{"basePricing":{"monthlyBase":99.99,"setupFee":50}}`)

	out, err := run(t, "--config", cfg, "--format", "json", "value", schedule)
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if !strings.Contains(out, `"total_value": "149.99"`) {
		t.Errorf("unexpected output %s", out)
	}
}

func TestUsageAndReportCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.json",
		`{"ledger":{"backend":"file","path":"`+filepath.ToSlash(filepath.Join(dir, "ledger"))+`"}}`)

	if _, err := run(t, "--config", cfg, "usage", "add", "--owner", "acme", "--amount", "10",
		"--rate", "0.2", "--date", "2026-01-15"); err != nil {
		t.Fatalf("usage add: %v", err)
	}

	out, err := run(t, "--config", cfg, "--format", "json", "report", "--owner", "acme",
		"--from", "2026-01-01", "--to", "2026-01-31")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, `"total_calls": 1`) || !strings.Contains(out, `"total_cost": "2"`) {
		t.Errorf("unexpected report %s", out)
	}
}

func TestOverageRejectsBadUsage(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.json", `{"ledger":{"backend":"memory"}}`)
	contracts := writeFile(t, dir, "c.hcl", `contract "acme" {}`)

	if _, err := run(t, "--config", cfg, "overage", "--contract", contracts, "--usage", "local"); err == nil {
		t.Error("expected an error for --usage without '='")
	}
}
