// Package cmdrunner invokes and parses the output of external tools: the
// service manager and the firewall-dump utilities. Unlike procfs, these
// sub-checks run a command and are subject to a bounded timeout.
package cmdrunner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/osiriscare/vpnsentry/internal/model"
)

const commandTimeout = 10 * time.Second

// ReadSystemdUnits runs "list-units --type=service --state=running" and
// "list-timers --state=active", parses both, and returns the union. Header
// and trailing summary lines are skipped per the service manager's
// --no-legend output format (still present as occasional summary rows on
// some systemd builds even with --no-legend, hence the defensive filter).
func ReadSystemdUnits(binary string) ([]model.SystemdUnitInfo, []model.Finding) {
	if binary == "" {
		binary = "systemctl"
	}
	var units []model.SystemdUnitInfo
	var findings []model.Finding

	services, f := runAndParse(binary, "service", 2,
		"list-units", "--type=service", "--state=running", "--no-pager", "--no-legend")
	units = append(units, services...)
	findings = append(findings, f...)

	timers, f := runAndParse(binary, "timer", 3,
		"list-timers", "--state=active", "--no-pager", "--no-legend")
	units = append(units, timers...)
	findings = append(findings, f...)

	return units, findings
}

func runAndParse(binary, unitType string, stateColumn int, args ...string) ([]model.SystemdUnitInfo, []model.Finding) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := runCommand(ctx, binary, args...)
	if err != nil {
		return nil, []model.Finding{model.NewFinding(model.Warning,
			fmt.Sprintf("%s %v failed: %v", binary, args, err))}
	}

	var units []model.SystemdUnitInfo
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if shouldSkipUnitLine(trimmed) {
			continue
		}
		fields := strings.Fields(strings.TrimLeft(trimmed, "●* \t"))
		if len(fields) <= stateColumn {
			continue
		}
		name := fields[0]
		units = append(units, model.SystemdUnitInfo{
			Name:  name,
			Type:  unitType,
			State: fields[stateColumn],
		})
	}
	return units, nil
}

func shouldSkipUnitLine(line string) bool {
	if line == "" {
		return true
	}
	if strings.Contains(line, "loaded units listed") || strings.Contains(line, "timers listed") {
		return true
	}
	if strings.HasPrefix(line, "NEXT") || strings.HasPrefix(line, "@") {
		return true
	}
	return false
}
