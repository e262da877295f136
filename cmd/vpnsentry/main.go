// Command vpnsentry runs a single VPN posture and leak-detection audit
// pass (or, with -daemon, repeated passes on an interval) and reports a
// confidence score with an itemised list of findings.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"github.com/osiriscare/vpnsentry/internal/audit"
	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/daemonmode"
	"github.com/osiriscare/vpnsentry/internal/fleetreport"
	"github.com/osiriscare/vpnsentry/internal/history"
	"github.com/osiriscare/vpnsentry/internal/model"
	"github.com/osiriscare/vpnsentry/internal/remoteaudit"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML configuration file (defaults are used if omitted)")
	daemon := flag.Bool("daemon", false, "run continuously on daemon_interval_secs, notifying systemd between passes")
	remoteOnly := flag.Bool("remote-only", false, "skip the local audit, only audit configured remote_hosts")
	jsonOutput := flag.Bool("json", false, "print the AuditReport as JSON instead of the human-readable summary")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			log.Printf("[main] %v", err)
			return 1
		}
		cfg = loaded
	}

	var hist *history.Store
	if cfg.HistoryDBPath != "" {
		s, err := history.Open(cfg.HistoryDBPath)
		if err != nil {
			log.Printf("[main] could not open history store: %v", err)
		} else {
			hist = s
			defer hist.Close()
		}
	}

	var reporter *fleetreport.Client
	if cfg.FleetReportEndpoint != "" {
		c, err := fleetreport.Dial(cfg.FleetReportEndpoint)
		if err != nil {
			log.Printf("[main] could not dial fleet report endpoint: %v", err)
		} else {
			reporter = c
			defer reporter.Close()
		}
	}

	runOnce := func() *model.AuditReport {
		var shutdown atomic.Bool
		var report *model.AuditReport
		if !*remoteOnly {
			report = audit.Run(cfg, &shutdown)
		} else {
			report = &model.AuditReport{}
		}

		if len(cfg.RemoteHosts) > 0 {
			remoteReports := remoteaudit.AuditFleet(cfg)
			for host, r := range remoteReports {
				log.Printf("[main] remote %s: score=%.1f findings=%d", host, r.Score, len(r.AllFindings))
			}
		}

		if hist != nil {
			if err := hist.Record(report); err != nil {
				log.Printf("[main] could not record history: %v", err)
			}
		}
		if reporter != nil {
			if err := reporter.Send(report); err != nil {
				log.Printf("[main] could not send fleet report: %v", err)
			}
		}
		if *jsonOutput {
			printReportJSON(report)
		} else {
			printReport(report)
		}
		return report
	}

	if *daemon {
		daemonmode.Run(cfg, runOnce)
		return 0
	}

	report := runOnce()
	if audit.Passed(report) {
		return 0
	}
	return 1
}

func printReportJSON(report *model.AuditReport) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Printf("[main] could not encode report as JSON: %v", err)
	}
}

func printReport(report *model.AuditReport) {
	fmt.Printf("System Confidence Score: %.1f%%\n", report.Score)
	if len(report.CriticalFindings) > 0 {
		fmt.Println("Critical Findings Impacting Score:")
		for _, f := range report.CriticalFindings {
			fmt.Printf("- %s\n", f.Text)
		}
	}
	if len(report.AllFindings) > 0 {
		fmt.Println("All Reported Findings:")
		for _, f := range report.AllFindings {
			fmt.Printf("[%s] %s\n", f.Severity, f.Text)
		}
	} else {
		fmt.Println("All checks indicate nominal status.")
	}
}
