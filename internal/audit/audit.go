// Package audit composes C1-C8 into a single run: interface/DNS checks,
// host audit, opsec, traffic monitoring, then scoring.
package audit

import (
	"log"
	"sync/atomic"

	"github.com/osiriscare/vpnsentry/internal/capture"
	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/filtercompiler"
	"github.com/osiriscare/vpnsentry/internal/hostaudit"
	"github.com/osiriscare/vpnsentry/internal/ifacecheck"
	"github.com/osiriscare/vpnsentry/internal/model"
	"github.com/osiriscare/vpnsentry/internal/opsec"
	"github.com/osiriscare/vpnsentry/internal/score"
)

// Run executes one full audit pass. shutdown is polled by the capture
// supervisor; callers running in daemon mode should clear it to false
// before each call and set it to request an early stop of the capture
// phase for this pass.
func Run(cfg config.Configuration, shutdown *atomic.Bool) *model.AuditReport {
	report := &model.AuditReport{}

	log.Printf("[audit] running interface check")
	report.InterfaceCheck = ifacecheck.VerifyInterface(cfg)
	report.AllFindings = append(report.AllFindings, report.InterfaceCheck.Findings...)

	log.Printf("[audit] running DNS check")
	report.DNSCheck = ifacecheck.VerifyDNS(cfg)
	report.AllFindings = append(report.AllFindings, report.DNSCheck.Findings...)

	log.Printf("[audit] running host audit")
	report.HostAudit = hostaudit.Run(cfg)
	report.AllFindings = append(report.AllFindings, report.HostAudit.AllFindings...)

	log.Printf("[audit] running opsec checks")
	report.Opsec = opsec.Run(cfg)
	report.AllFindings = append(report.AllFindings, report.Opsec.AllFindings...)

	if len(cfg.PhysicalInterfaceNames) > 0 {
		log.Printf("[audit] starting traffic monitor on %v", cfg.PhysicalInterfaceNames)
		localIPs, err := ifacecheck.LocalIPs(cfg.TunnelInterfaceName)
		if err != nil {
			log.Printf("[audit] could not enumerate local IPs: %v", err)
		}
		filterExpr, filterFindings := filtercompiler.Compile(cfg, localIPs)
		report.AllFindings = append(report.AllFindings, filterFindings...)

		report.TrafficMonitor = capture.Run(cfg.PhysicalInterfaceNames, filterExpr, shutdown)
		report.AllFindings = append(report.AllFindings, report.TrafficMonitor.Findings...)
		for _, leak := range report.TrafficMonitor.DetectedLeaks {
			report.AllFindings = append(report.AllFindings, model.NewFinding(model.Critical, leak.Summary()))
		}
	} else {
		log.Printf("[audit] no physical interfaces configured, skipping traffic monitor")
	}

	report.Score, report.CriticalFindings = score.Aggregate(report)
	log.Printf("[audit] confidence score: %.1f", report.Score)

	return report
}

// Passed reports whether the run meets the external success criterion:
// score >= 80 and the findings list is empty.
func Passed(report *model.AuditReport) bool {
	return report.Score >= 80.0 && len(report.AllFindings) == 0
}
