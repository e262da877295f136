// Package opsec implements the operational-security supplement: hosts-file
// hygiene and environment-variable hygiene. These findings feed the
// aggregator's "Opsec sub-findings" row, which has no producing sub-check
// elsewhere; the aggregator has no "did not complete" row for opsec.
package opsec

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/model"
	"github.com/osiriscare/vpnsentry/internal/procfs"
)

var sensitiveNameFragments = []string{"PASS", "SECRET", "TOKEN", "API_KEY", "PRIVATE_KEY"}
var riskyEnvVars = []string{"LD_PRELOAD", "LD_LIBRARY_PATH"}

// Run performs the hosts-file check then the environment-variable check,
// in that order, matching the original tool's run order.
func Run(cfg config.Configuration) model.OpsecResult {
	var result model.OpsecResult

	result.HostsFileFindings = checkHostsFile(cfg)
	result.AllFindings = append(result.AllFindings, result.HostsFileFindings...)

	result.EnvVarFindings = checkEnvVars(cfg)
	result.AllFindings = append(result.AllFindings, result.EnvVarFindings...)

	return result
}

func checkHostsFile(cfg config.Configuration) []model.Finding {
	entries, readFindings, err := procfs.ReadHostsFile()
	if err != nil {
		return []model.Finding{model.NewFinding(model.Warning, fmt.Sprintf("opsec: %v", err))}
	}
	disallowed := make(map[string]bool, len(cfg.DisallowedHostsEntries))
	for _, h := range cfg.DisallowedHostsEntries {
		disallowed[h] = true
	}
	findings := append([]model.Finding{}, readFindings...)
	findings = append(findings, procfs.EvaluateHostsFile(entries, disallowed)...)
	return findings
}

func checkEnvVars(cfg config.Configuration) []model.Finding {
	disallowed := make(map[string]bool, len(cfg.DisallowedEnvVars))
	for _, v := range cfg.DisallowedEnvVars {
		disallowed[v] = true
	}

	var findings []model.Finding
	for _, kv := range os.Environ() {
		idx := strings.IndexByte(kv, '=')
		if idx < 0 {
			continue
		}
		key, value := kv[:idx], kv[idx+1:]
		upper := strings.ToUpper(key)

		if disallowed[key] {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("disallowed environment variable set: %s", key)))
			continue
		}

		flagged := false
		for _, frag := range sensitiveNameFragments {
			if strings.Contains(upper, frag) {
				// Value never enters the finding text; only its name and
				// length (at debug level) are disclosed.
				log.Printf("[opsec] potentially sensitive var %s (value length %d)", key, len(value))
				findings = append(findings, model.NewFinding(model.Warning,
					fmt.Sprintf("potentially sensitive var: %s", key)))
				flagged = true
				break
			}
		}
		if flagged {
			continue
		}

		for _, risky := range riskyEnvVars {
			if upper == risky {
				findings = append(findings, model.NewFinding(model.Warning,
					fmt.Sprintf("potentially risky environment variable set: %s = %s", key, value)))
			}
		}
	}
	return findings
}
