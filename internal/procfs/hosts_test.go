package procfs

import (
	"net"
	"testing"
)

func TestEvaluateHostsFile_FlagsSuspiciousEntries(t *testing.T) {
	entries := []HostsEntry{
		{IP: net.ParseIP("127.0.0.1"), Hostnames: []string{"localhost"}, LineNo: 1},
		{IP: net.ParseIP("127.0.0.1"), Hostnames: []string{"evil.example.com"}, LineNo: 2},
		{IP: net.ParseIP("10.0.0.5"), Hostnames: []string{"localhost"}, LineNo: 3},
		{IP: net.ParseIP("10.0.0.6"), Hostnames: []string{"blocked.example.com"}, LineNo: 4},
	}
	disallowed := map[string]bool{"blocked.example.com": true}

	findings := EvaluateHostsFile(entries, disallowed)
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings (lines 2,3,4), got %d: %v", len(findings), findings)
	}
}

func TestEvaluateHostsFile_LocalhostVariantsAreNotFlagged(t *testing.T) {
	entries := []HostsEntry{
		{IP: net.ParseIP("::1"), Hostnames: []string{"localhost", "host.localhost", "localhost.localdomain"}, LineNo: 1},
	}
	findings := EvaluateHostsFile(entries, nil)
	if len(findings) != 0 {
		t.Errorf("expected no findings for recognised localhost variants, got %v", findings)
	}
}
