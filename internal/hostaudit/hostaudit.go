// Package hostaudit drives the kernel-surface readers and command runners
// against the configured policy, in the fixed order: listening ports,
// processes, logins, file modifications, kernel modules, service-manager
// units, firewall (optional).
package hostaudit

import (
	"fmt"
	"os"
	"time"

	"github.com/osiriscare/vpnsentry/internal/cmdrunner"
	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/model"
	"github.com/osiriscare/vpnsentry/internal/procfs"
)

// Run executes all sub-checks in order and concatenates their findings.
func Run(cfg config.Configuration) model.HostAuditResult {
	var result model.HostAuditResult

	result.PortCheck = checkPorts(cfg)
	result.AllFindings = append(result.AllFindings, result.PortCheck.Findings...)

	result.ProcessCheck = checkProcesses(cfg)
	result.AllFindings = append(result.AllFindings, result.ProcessCheck.Findings...)

	result.LoginCheck = checkLogins(cfg)
	result.AllFindings = append(result.AllFindings, result.LoginCheck.Findings...)

	result.FileCheck = checkFiles(cfg)
	result.AllFindings = append(result.AllFindings, result.FileCheck.Findings...)

	result.ModuleCheck = checkModules(cfg)
	result.AllFindings = append(result.AllFindings, result.ModuleCheck.Findings...)

	result.SystemdCheck = checkSystemd(cfg)
	result.AllFindings = append(result.AllFindings, result.SystemdCheck.Findings...)

	if cfg.CheckFirewallRules {
		fw := checkFirewall()
		result.FirewallCheck = &fw
		result.AllFindings = append(result.AllFindings, fw.Findings...)
	}

	return result
}

func intSet(vals []int) map[int]bool {
	m := make(map[int]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

func strSet(vals []string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

func checkPorts(cfg config.Configuration) model.PortCheckResult {
	sockets, findings := procfs.ReadListeningSockets()
	allowedTCP := intSet(cfg.AllowedListeningTCPPorts)
	allowedUDP := intSet(cfg.AllowedListeningUDPPorts)

	var unexpected []model.ListeningSocket
	for _, s := range sockets {
		if s.LocalIP.IsLoopback() {
			continue
		}
		allowed := allowedTCP
		if s.Protocol == model.UDP {
			allowed = allowedUDP
		}
		if !allowed[int(s.LocalPort)] {
			unexpected = append(unexpected, s)
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("unexpected listening socket %s %s:%d", s.Protocol, s.LocalIP, s.LocalPort)))
		}
	}

	return model.PortCheckResult{Sockets: sockets, UnexpectedSockets: unexpected, Findings: findings}
}

func checkProcesses(cfg config.Configuration) model.ProcessCheckResult {
	processes := procfs.ReadProcesses()
	disallowed := strSet(cfg.DisallowedProcessNames)

	var findings []model.Finding
	for _, p := range processes {
		if disallowed[p.Name] {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("disallowed process running: pid=%d name=%s cmdline=%q", p.PID, p.Name, p.Cmdline)))
		}
	}
	return model.ProcessCheckResult{Processes: processes, Findings: findings}
}

func checkLogins(cfg config.Configuration) model.LoginCheckResult {
	logins, findings := procfs.ReadLogins()
	allowedUsers := strSet(cfg.AllowedLoginUsers)
	allowedHosts := strSet(cfg.AllowedLoginHosts)
	restrictUsers := len(cfg.AllowedLoginUsers) > 0
	restrictHosts := len(cfg.AllowedLoginHosts) > 0

	// findings collected above may already carry Warning entries from
	// procfs.ReadLogins (e.g. utmp unreadable); those are not disallowed
	// logins and must not be counted toward the aggregator's per-login
	// penalty.
	disallowed := 0
	for _, l := range logins {
		userOK := !restrictUsers || allowedUsers[l.User]
		if !userOK {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("login by disallowed user %q on %s from %q", l.User, l.Terminal, l.Host)))
			disallowed++
			continue
		}
		if restrictHosts && l.Host != "" && !allowedHosts[l.Host] {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("login by %q from disallowed host %q", l.User, l.Host)))
			disallowed++
		}
	}
	return model.LoginCheckResult{Logins: logins, DisallowedLoginCount: disallowed, Findings: findings}
}

func checkFiles(cfg config.Configuration) model.FileCheckResult {
	threshold := time.Duration(cfg.RecentModThresholdSecs) * time.Second
	if threshold <= 0 {
		threshold = 3600 * time.Second
	}
	now := time.Now()

	var findings []model.Finding
	recentlyModified := 0
	for _, path := range cfg.WatchedFilesForModification {
		info, err := os.Stat(path)
		if err != nil {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("watched file %s missing or unreadable: %v", path, err)))
			continue
		}
		elapsed := now.Sub(info.ModTime())
		if elapsed < 0 {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("watched file %s has a future modification time", path)))
			continue
		}
		if elapsed < threshold {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("watched file %s modified %s ago", path, elapsed)))
			recentlyModified++
		}
	}
	return model.FileCheckResult{RecentlyModifiedCount: recentlyModified, Findings: findings}
}

func checkModules(cfg config.Configuration) model.ModuleCheckResult {
	if cfg.EnforceRequiredModulesOnly && len(cfg.RequiredKernelModules) == 0 {
		return model.ModuleCheckResult{
			Aborted: true,
			Findings: []model.Finding{model.NewFinding(model.Critical,
				"strict kernel-module mode enabled but no required module list configured")},
		}
	}

	modules, findings := procfs.ReadKernelModules()
	disallowed := strSet(cfg.DisallowedKernelModules)
	required := strSet(cfg.RequiredKernelModules)
	seenRequired := make(map[string]bool, len(required))

	// disallowedLoaded and missingRequired are scored separately by the
	// aggregator (30 vs 25 points respectively per the penalty table) even
	// though both are Critical findings.
	disallowedLoaded := 0
	missingRequired := 0
	for _, m := range modules {
		if disallowed[m.Name] {
			findings = append(findings, model.NewFinding(model.Critical,
				fmt.Sprintf("disallowed kernel module loaded: %s", m.Name)))
			disallowedLoaded++
		}
		if required[m.Name] {
			seenRequired[m.Name] = true
		} else if cfg.EnforceRequiredModulesOnly {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("unexpected kernel module loaded (strict mode): %s", m.Name)))
		}
	}
	for name := range required {
		if !seenRequired[name] {
			findings = append(findings, model.NewFinding(model.Critical,
				fmt.Sprintf("required kernel module not loaded: %s", name)))
			missingRequired++
		}
	}

	return model.ModuleCheckResult{
		Modules:               modules,
		DisallowedLoadedCount: disallowedLoaded,
		MissingRequiredCount:  missingRequired,
		Findings:              findings,
	}
}

func checkSystemd(cfg config.Configuration) model.SystemdCheckResult {
	units, findings := cmdrunner.ReadSystemdUnits("")
	disallowedServices := strSet(cfg.DisallowedSystemdServices)
	disallowedTimers := strSet(cfg.DisallowedSystemdTimers)

	result := model.SystemdCheckResult{Units: units}
	for _, u := range units {
		switch u.Type {
		case "service":
			if disallowedServices[u.Name] {
				result.DisallowedServiceCount++
				findings = append(findings, model.NewFinding(model.Critical,
					fmt.Sprintf("disallowed service running: %s", u.Name)))
			}
		case "timer":
			if disallowedTimers[u.Name] {
				result.DisallowedTimerCount++
				findings = append(findings, model.NewFinding(model.Critical,
					fmt.Sprintf("disallowed timer active: %s", u.Name)))
			}
		}
	}
	result.Findings = findings
	return result
}

func checkFirewall() model.FirewallCheckResult {
	dump, truncated, unavailable, findings := cmdrunner.ReadFirewallDump()
	return model.FirewallCheckResult{Dump: dump, Truncated: truncated, Unavailable: unavailable, Findings: findings}
}
