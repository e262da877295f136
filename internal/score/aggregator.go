// Package score implements the confidence aggregator (C8): a fixed
// penalty table applied to the composed results of every subsystem,
// producing a clamped score and an itemised critical-findings list.
package score

import (
	"fmt"
	"math"

	"github.com/osiriscare/vpnsentry/internal/model"
)

const (
	penaltyTunnelMissing           = 50.0
	penaltyTunnelDown              = 30.0
	penaltyTunnelNotRunning        = 5.0
	penaltyTunnelIPMismatch        = 25.0
	penaltyTunnelNoIPsNoneExpected = 10.0
	penaltyExternalIPMismatch      = 40.0
	penaltyExternalIPCheckFailed   = 10.0
	penaltyDNSMismatch             = 30.0
	penaltyDNSUnreadable           = 15.0
	penaltyUnexpectedSocket        = 15.0
	penaltyDisallowedProcess       = 25.0
	penaltyDisallowedLogin         = 20.0
	penaltyRecentlyModifiedFile    = 5.0
	penaltyDisallowedModule        = 30.0
	penaltyMissingRequiredModule   = 25.0
	penaltyUnexpectedModuleStrict  = 10.0
	penaltyDisallowedService       = 20.0
	penaltyDisallowedTimer         = 15.0
	penaltyServiceManagerError     = 10.0
	penaltyFirewallError           = 10.0
	penaltyFirewallUnavailable     = 5.0
	penaltyOpsecPerFinding         = 2.0
	penaltyOpsecCap                = 20.0
	penaltyLeakBase                = 50.0
	penaltyLeakPerEvent            = 10.0
	penaltyLeakCap                 = 80.0
	penaltyCaptureErrors           = 15.0
	penaltyCaptureIncomplete       = 20.0
)

// Aggregate combines every subsystem's results into a score in [0, 100]
// and a critical-findings subset, mirroring the penalty table. A missing
// result never raises the score. The only "did not complete" row is the
// traffic monitor's Incomplete flag; a missing tunnel interface is scored
// as tunnel missing, and a zero-value DNS, host-audit or opsec result adds
// no penalty.
func Aggregate(report *model.AuditReport) (float64, []model.Finding) {
	scoreVal := 100.0
	var critical []model.Finding

	apply := func(penalty float64, sev model.Severity, msg string) {
		scoreVal -= penalty
		if sev == model.Critical {
			critical = append(critical, model.NewFinding(model.Critical, msg))
		}
	}

	ic := report.InterfaceCheck
	switch {
	case !ic.Found:
		apply(penaltyTunnelMissing, model.Critical, fmt.Sprintf("tunnel interface %q missing", ic.InterfaceName))
	default:
		if ic.IsUp != nil && !*ic.IsUp {
			apply(penaltyTunnelDown, model.Critical, fmt.Sprintf("tunnel interface %q down", ic.InterfaceName))
		} else if ic.IsRunning != nil && !*ic.IsRunning {
			apply(penaltyTunnelNotRunning, model.Warning, "")
		}
		switch ic.NetworkMatchStatus {
		case model.NetworkMismatch:
			apply(penaltyTunnelIPMismatch, model.Critical, "tunnel IP mismatch")
		case model.NetworkNoAddresses:
			apply(penaltyTunnelNoIPsNoneExpected, model.Warning, "")
		}
		switch ic.ExternalIPStatus {
		case model.ExternalIPMismatch:
			apply(penaltyExternalIPMismatch, model.Critical, fmt.Sprintf("external IP %s confirmed mismatch", ic.ObservedExternalIP))
		case model.ExternalIPCheckFailed:
			apply(penaltyExternalIPCheckFailed, model.Warning, "")
		}
	}

	dc := report.DNSCheck
	switch dc.MatchStatus {
	case model.DNSMismatch:
		apply(penaltyDNSMismatch, model.Critical, "DNS configuration mismatch")
	case model.DNSUnreadable:
		apply(penaltyDNSUnreadable, model.Warning, "")
	}

	ha := report.HostAudit
	for range ha.PortCheck.UnexpectedSockets {
		apply(penaltyUnexpectedSocket, model.Critical, "unexpected listening socket")
	}
	for _, f := range ha.ProcessCheck.Findings {
		_ = f
		apply(penaltyDisallowedProcess, model.Critical, "disallowed process running")
	}
	// LoginCheck.Findings also carries Warning entries from procfs.ReadLogins
	// (utmp unreadable or a malformed record) that are not disallowed logins;
	// only DisallowedLoginCount drives the per-login penalty.
	for i := 0; i < ha.LoginCheck.DisallowedLoginCount; i++ {
		apply(penaltyDisallowedLogin, model.Critical, "disallowed login")
	}
	for i := 0; i < ha.FileCheck.RecentlyModifiedCount; i++ {
		apply(penaltyRecentlyModifiedFile, model.Warning, "")
	}
	if ha.ModuleCheck.Aborted {
		apply(0, model.Critical, "kernel-module sub-check aborted: configuration invalid")
	} else {
		for i := 0; i < ha.ModuleCheck.DisallowedLoadedCount; i++ {
			apply(penaltyDisallowedModule, model.Critical, "disallowed kernel module loaded")
		}
		for i := 0; i < ha.ModuleCheck.MissingRequiredCount; i++ {
			apply(penaltyMissingRequiredModule, model.Critical, "required kernel module missing")
		}
		for _, f := range ha.ModuleCheck.Findings {
			if f.Severity == model.Warning {
				apply(penaltyUnexpectedModuleStrict, model.Warning, "")
			}
		}
	}
	for i := 0; i < ha.SystemdCheck.DisallowedServiceCount; i++ {
		apply(penaltyDisallowedService, model.Critical, "disallowed service running")
	}
	for i := 0; i < ha.SystemdCheck.DisallowedTimerCount; i++ {
		apply(penaltyDisallowedTimer, model.Critical, "disallowed timer active")
	}
	for _, f := range ha.SystemdCheck.Findings {
		if f.Severity == model.Warning {
			apply(penaltyServiceManagerError, model.Warning, "")
		}
	}
	if report.HostAudit.FirewallCheck != nil {
		fw := report.HostAudit.FirewallCheck
		if fw.Unavailable {
			apply(penaltyFirewallUnavailable, model.Warning, "")
		} else {
			for range fw.Findings {
				apply(penaltyFirewallError, model.Warning, "")
			}
		}
	}

	opsecCount := len(report.Opsec.AllFindings)
	if opsecCount > 0 {
		apply(math.Min(penaltyOpsecPerFinding*float64(opsecCount), penaltyOpsecCap), model.Warning, "")
	}

	leaks := len(report.TrafficMonitor.DetectedLeaks)
	if leaks > 0 {
		penalty := math.Min(penaltyLeakBase+penaltyLeakPerEvent*float64(leaks), penaltyLeakCap)
		apply(penalty, model.Critical, fmt.Sprintf("%d potential traffic leak(s) detected", leaks))
		limit := leaks
		if limit > 3 {
			limit = 3
		}
		for _, leak := range report.TrafficMonitor.DetectedLeaks[:limit] {
			critical = append(critical, model.NewFinding(model.Critical, leak.Summary()))
		}
	}
	if report.TrafficMonitor.Incomplete {
		apply(penaltyCaptureIncomplete, model.Warning, "")
	} else if len(report.TrafficMonitor.Findings) > 0 {
		apply(penaltyCaptureErrors, model.Warning, "")
	}

	if scoreVal < 0 {
		scoreVal = 0
	}
	if scoreVal > 100 {
		scoreVal = 100
	}

	return scoreVal, dedupeFindings(critical)
}

// dedupeFindings removes exact duplicate (severity, text) pairs while
// preserving first-occurrence order; identity is structured, not the raw
// string equality the original tool relied on.
func dedupeFindings(in []model.Finding) []model.Finding {
	seen := make(map[model.Finding]bool, len(in))
	var out []model.Finding
	for _, f := range in {
		if f.Text == "" {
			continue
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
