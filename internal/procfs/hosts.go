package procfs

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/osiriscare/vpnsentry/internal/model"
)

// HostsEntry is one non-comment, non-empty /etc/hosts line with at least
// one hostname token.
type HostsEntry struct {
	IP        net.IP
	Hostnames []string
	LineNo    int
}

// ReadHostsFile parses /etc/hosts into raw entries, skipping comments and
// malformed lines. The opsec sub-check is its only caller and evaluates the
// entries with EvaluateHostsFile; the host audit does not read /etc/hosts.
func ReadHostsFile() ([]HostsEntry, []model.Finding, error) {
	f, err := os.Open("/etc/hosts")
	if err != nil {
		return nil, nil, fmt.Errorf("opening /etc/hosts: %w", err)
	}
	defer f.Close()

	var entries []HostsEntry
	var findings []model.Finding

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}
		ip := net.ParseIP(fields[0])
		if ip == nil {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("could not parse IP address %q in /etc/hosts (line %d)", fields[0], lineNo)))
			continue
		}
		entries = append(entries, HostsEntry{IP: ip, Hostnames: fields[1:], LineNo: lineNo})
	}
	return entries, findings, nil
}

func isLoopback(ip net.IP) bool {
	return ip.IsLoopback()
}

// EvaluateHostsFile applies the hosts-file policy: loopback IPs must map to
// localhost (or a recognised variant); non-loopback IPs must not map to
// localhost; hostnames on non-loopback lines are checked against
// disallowedHosts.
func EvaluateHostsFile(entries []HostsEntry, disallowedHosts map[string]bool) []model.Finding {
	var findings []model.Finding
	for _, e := range entries {
		loop := isLoopback(e.IP)
		for _, host := range e.Hostnames {
			switch {
			case loop && host != "localhost" && !strings.HasSuffix(host, ".localhost") && host != "localhost.localdomain":
				findings = append(findings, model.NewFinding(model.Warning,
					fmt.Sprintf("suspicious localhost entry: IP %s points to %q (line %d)", e.IP, host, e.LineNo)))
			case !loop && host == "localhost":
				findings = append(findings, model.NewFinding(model.Warning,
					fmt.Sprintf("suspicious entry: non-loopback IP %s points to 'localhost' (line %d)", e.IP, e.LineNo)))
			case !loop && disallowedHosts[host]:
				findings = append(findings, model.NewFinding(model.Warning,
					fmt.Sprintf("disallowed hosts entry: IP %s mapped to disallowed host %q (line %d)", e.IP, host, e.LineNo)))
			}
		}
	}
	return findings
}
