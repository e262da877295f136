package ifacecheck

import (
	"fmt"
	"net"
	"sort"

	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/model"
	"github.com/osiriscare/vpnsentry/internal/procfs"
)

// VerifyDNS compares the resolver configuration's nameserver set against
// the expected set, as unordered sets.
func VerifyDNS(cfg config.Configuration) model.DNSCheckResult {
	expected, bad := config.ParseIPList(cfg.ExpectedDNSServers)
	result := model.DNSCheckResult{ServersExpected: expected}
	for _, b := range bad {
		result.Findings = append(result.Findings, model.NewFinding(model.Warning,
			fmt.Sprintf("invalid expected_dns_servers entry %q", b)))
	}

	found, readFindings, err := procfs.ReadResolvConf()
	result.Findings = append(result.Findings, readFindings...)
	if err != nil {
		result.MatchStatus = model.DNSUnreadable
		result.Findings = append(result.Findings, model.NewFinding(model.Warning,
			fmt.Sprintf("could not read DNS configuration: %v", err)))
		return result
	}
	result.ServersFound = found

	if len(expected) == 0 {
		result.MatchStatus = model.DNSNotChecked
		return result
	}

	if ipSetEqual(expected, found) {
		result.MatchStatus = model.DNSMatch
		return result
	}

	result.MatchStatus = model.DNSMismatch
	missing, unexpected := ipSetDiff(expected, found)
	if len(missing) > 0 {
		result.Findings = append(result.Findings, model.NewFinding(model.Critical,
			fmt.Sprintf("missing expected DNS servers: %v", ipStrings(missing))))
	}
	if len(unexpected) > 0 {
		result.Findings = append(result.Findings, model.NewFinding(model.Critical,
			fmt.Sprintf("unexpected DNS servers configured: %v", ipStrings(unexpected))))
	}
	if len(found) == 0 {
		result.Findings = append(result.Findings, model.NewFinding(model.Critical, "no DNS servers found in resolver configuration"))
	}
	return result
}

func ipSetEqual(a, b []net.IP) bool {
	missing, unexpected := ipSetDiff(a, b)
	return len(missing) == 0 && len(unexpected) == 0
}

func ipSetDiff(expected, found []net.IP) (missing, unexpected []net.IP) {
	expSet := make(map[string]bool, len(expected))
	for _, ip := range expected {
		expSet[ip.String()] = true
	}
	foundSet := make(map[string]bool, len(found))
	for _, ip := range found {
		foundSet[ip.String()] = true
	}
	for _, ip := range expected {
		if !foundSet[ip.String()] {
			missing = append(missing, ip)
		}
	}
	for _, ip := range found {
		if !expSet[ip.String()] {
			unexpected = append(unexpected, ip)
		}
	}
	return missing, unexpected
}

func ipStrings(ips []net.IP) []string {
	out := make([]string, len(ips))
	for i, ip := range ips {
		out[i] = ip.String()
	}
	sort.Strings(out)
	return out
}
