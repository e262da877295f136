package cmdrunner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/osiriscare/vpnsentry/internal/model"
)

const firewallDumpMaxBytes = 16 * 1024
const truncationMarker = "\n--- truncated ---\n"

// ReadFirewallDump concatenates the textual output of nft and/or
// iptables/ip6tables into a single forensic artefact, truncated to 16 KiB.
// The tool never interprets firewall policy semantics, only captures the
// dump.
func ReadFirewallDump() (dump string, truncated bool, unavailable bool, findings []model.Finding) {
	var buf bytes.Buffer
	any := false

	if path, err := exec.LookPath("nft"); err == nil {
		any = true
		out, err := run(path, "list", "ruleset")
		if err != nil {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("nft list ruleset failed: %v", err)))
		} else {
			buf.WriteString("=== nft list ruleset ===\n")
			buf.WriteString(out)
		}
	}

	if path, err := exec.LookPath("iptables"); err == nil {
		any = true
		appendDump(&buf, &findings, path, "-L", "-n", "-v")
		appendDump(&buf, &findings, path, "-t", "nat", "-L", "-n", "-v")
	}

	if path, err := exec.LookPath("ip6tables"); err == nil {
		any = true
		appendDump(&buf, &findings, path, "-L", "-n", "-v")
		appendDump(&buf, &findings, path, "-t", "nat", "-L", "-n", "-v")
	}

	if !any {
		findings = append(findings, model.NewFinding(model.Warning,
			"no firewall dump tool (nft, iptables, ip6tables) available"))
		return "", false, true, findings
	}

	dump = buf.String()
	if len(dump) > firewallDumpMaxBytes {
		dump = dump[:firewallDumpMaxBytes] + truncationMarker
		truncated = true
	}
	return dump, truncated, false, findings
}

func appendDump(buf *bytes.Buffer, findings *[]model.Finding, path string, args ...string) {
	out, err := run(path, args...)
	if err != nil {
		*findings = append(*findings, model.NewFinding(model.Warning,
			fmt.Sprintf("%s %v failed: %v", path, args, err)))
		return
	}
	buf.WriteString(fmt.Sprintf("=== %s %v ===\n", path, args))
	buf.WriteString(out)
}

func run(path string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return runCommand(ctx, path, args...)
}
