package score

import (
	"testing"

	"github.com/osiriscare/vpnsentry/internal/model"
)

func nominalReport() *model.AuditReport {
	up := true
	return &model.AuditReport{
		InterfaceCheck: model.InterfaceCheckResult{
			Found: true, IsUp: &up, IsRunning: &up,
			NetworkMatchStatus: model.NetworkMatch,
		},
		DNSCheck: model.DNSCheckResult{MatchStatus: model.DNSMatch},
	}
}

func TestAggregate_AllNominalScoresOneHundred(t *testing.T) {
	report := nominalReport()
	s, critical := Aggregate(report)
	if s != 100 {
		t.Errorf("score = %v, want 100", s)
	}
	if len(critical) != 0 {
		t.Errorf("expected no critical findings, got %v", critical)
	}
}

func TestAggregate_TunnelDownScoresSeventy(t *testing.T) {
	report := nominalReport()
	down := false
	report.InterfaceCheck.IsUp = &down

	s, critical := Aggregate(report)
	if s != 70 {
		t.Errorf("score = %v, want 70", s)
	}
	if len(critical) != 1 {
		t.Errorf("expected exactly one critical finding, got %d: %v", len(critical), critical)
	}
}

func TestAggregate_SingleLeakPenaltyIsSixty(t *testing.T) {
	report := nominalReport()
	report.TrafficMonitor.DetectedLeaks = []model.LeakEvent{{InterfaceName: "eth0", Protocol: "TCP"}}

	s, _ := Aggregate(report)
	if s != 40 {
		t.Errorf("score = %v, want 40 (100 - 60)", s)
	}
}

func TestAggregate_TenLeaksPenaltyCapsAtEighty(t *testing.T) {
	report := nominalReport()
	for i := 0; i < 10; i++ {
		report.TrafficMonitor.DetectedLeaks = append(report.TrafficMonitor.DetectedLeaks,
			model.LeakEvent{InterfaceName: "eth0", Protocol: "TCP"})
	}

	s, _ := Aggregate(report)
	if s != 20 {
		t.Errorf("score = %v, want 20 (100 - 80 cap)", s)
	}
}

func TestAggregate_ScoreNeverGoesBelowZero(t *testing.T) {
	report := nominalReport()
	report.InterfaceCheck.Found = false
	report.DNSCheck.MatchStatus = model.DNSMismatch
	for i := 0; i < 20; i++ {
		report.TrafficMonitor.DetectedLeaks = append(report.TrafficMonitor.DetectedLeaks,
			model.LeakEvent{InterfaceName: "eth0", Protocol: "TCP"})
	}

	s, _ := Aggregate(report)
	if s < 0 {
		t.Errorf("score = %v, must clamp to >= 0", s)
	}
}

func TestAggregate_CriticalFindingsAreSubsetAndDeduplicated(t *testing.T) {
	report := nominalReport()
	report.InterfaceCheck.Found = false
	report.InterfaceCheck.ExternalIPStatus = model.ExternalIPMismatch

	_, critical := Aggregate(report)
	seen := make(map[model.Finding]bool)
	for _, f := range critical {
		if seen[f] {
			t.Errorf("critical findings contains a duplicate: %v", f)
		}
		seen[f] = true
	}
}
