package cmdrunner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/osiriscare/vpnsentry/internal/model"
)

func TestRun_CapturesStdout(t *testing.T) {
	out, err := run("echo", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("run output = %q, want hello", out)
	}
}

func TestRun_CommandFailureReturnsError(t *testing.T) {
	if _, err := run("false"); err == nil {
		t.Error("expected an error from a failing command")
	}
}

func TestAppendDump_SuccessWritesLabelledSection(t *testing.T) {
	var buf bytes.Buffer
	var findings []model.Finding
	appendDump(&buf, &findings, "echo", "ruleset")

	if len(findings) != 0 {
		t.Errorf("unexpected findings: %v", findings)
	}
	if !strings.Contains(buf.String(), "=== echo [ruleset] ===") {
		t.Errorf("expected labelled section header, got %q", buf.String())
	}
}

func TestAppendDump_FailureRecordsWarningWithoutWritingToBuffer(t *testing.T) {
	var buf bytes.Buffer
	var findings []model.Finding
	appendDump(&buf, &findings, "false")

	if buf.Len() != 0 {
		t.Errorf("expected nothing written to the dump buffer on failure, got %q", buf.String())
	}
	if len(findings) != 1 || findings[0].Severity != model.Warning {
		t.Errorf("expected one warning finding, got %v", findings)
	}
}
