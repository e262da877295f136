package cmdrunner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestShouldSkipUnitLine(t *testing.T) {
	cases := map[string]bool{
		"":                                     true,
		"42 loaded units listed.":              true,
		"5 timers listed.":                     true,
		"NEXT                        LEFT":     true,
		"@1730000000":                         true,
		"sshd.service loaded active running":  false,
	}
	for line, want := range cases {
		if got := shouldSkipUnitLine(line); got != want {
			t.Errorf("shouldSkipUnitLine(%q) = %v, want %v", line, got, want)
		}
	}
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunAndParse_ServiceColumnIsThirdField(t *testing.T) {
	fixture := writeFixture(t, "sshd.service loaded active running OpenSSH server\nnginx.service loaded active running A high performance web server\n")

	units, findings := runAndParse("cat", "service", 2, fixture)
	if len(findings) != 0 {
		t.Fatalf("unexpected findings: %v", findings)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d: %v", len(units), units)
	}
	if units[0].Name != "sshd.service" || units[0].State != "active" || units[0].Type != "service" {
		t.Errorf("unexpected first unit: %+v", units[0])
	}
}

func TestRunAndParse_TimerColumnIsFourthField(t *testing.T) {
	fixture := writeFixture(t, "Mon 2026-07-27 n/a  n/a n/a  logrotate.timer logrotate.service\n")
	// list-timers columns: NEXT LEFT LAST PASSED UNIT ACTIVATES -- state
	// isn't naturally part of that format, so this exercises column
	// indexing against a synthetic fixture rather than real systemd output.
	units, _ := runAndParse("cat", "timer", 3, fixture)
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d: %v", len(units), units)
	}
	if units[0].State != "n/a" {
		t.Errorf("state (4th field) = %q, want n/a", units[0].State)
	}
}

func TestRunAndParse_SkipsHeaderAndSummaryLines(t *testing.T) {
	fixture := writeFixture(t, "\n2 loaded units listed.\nsshd.service loaded active running OpenSSH server\n")
	units, _ := runAndParse("cat", "service", 2, fixture)
	if len(units) != 1 {
		t.Fatalf("expected 1 unit after skipping blank/summary lines, got %d: %v", len(units), units)
	}
}

func TestRunAndParse_StripsLeadingStatusMarkerFromUnitName(t *testing.T) {
	fixture := writeFixture(t, "● sshd.service loaded active running OpenSSH server\n")
	units, _ := runAndParse("cat", "service", 2, fixture)
	if len(units) != 1 || units[0].Name != "sshd.service" {
		t.Fatalf("expected marker stripped from unit name, got %+v", units)
	}
}

func TestRunAndParse_CommandFailureYieldsWarningFinding(t *testing.T) {
	_, findings := runAndParse("false", "service", 2)
	if len(findings) != 1 {
		t.Fatalf("expected one finding on command failure, got %v", findings)
	}
}
