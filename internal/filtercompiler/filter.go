// Package filtercompiler translates a Configuration plus the observed set
// of non-loopback, non-tunnel local IPs into a pcap capture-filter
// expression. Compile is a pure function of its two inputs: same
// configuration and same local-IP set always yield the same expression.
package filtercompiler

import (
	"fmt"
	"net"
	"strings"

	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/model"
)

var defaultLocalSubnets = []string{
	"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "169.254.0.0/16",
}

// Compile builds the capture filter expression: source in localIPs AND
// destination not in any exclusion class.
func Compile(cfg config.Configuration, localIPs []net.IP) (string, []model.Finding) {
	var findings []model.Finding

	var exclusions []string
	exclusions = append(exclusions, "dst net 127.0.0.0/8", "dst host ::1")
	exclusions = append(exclusions, "dst net fe80::/10", "dst net ff00::/8",
		"dst net 224.0.0.0/4", "dst host 255.255.255.255")

	subnets := cfg.LocalSubnets
	if len(subnets) == 0 {
		subnets = defaultLocalSubnets
	}
	for _, s := range subnets {
		exclusions = append(exclusions, fmt.Sprintf("dst net %s", s))
	}

	for _, ip := range cfg.TunnelServerIPs {
		if net.ParseIP(ip) == nil {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("invalid tunnel_server_ips entry %q", ip)))
			continue
		}
		exclusions = append(exclusions, fmt.Sprintf("dst host %s", ip))
	}

	for _, ip := range cfg.AllowedLeakDestinationIPs {
		if net.ParseIP(ip) == nil {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("invalid allowed_leak_destination_ips entry %q", ip)))
			continue
		}
		exclusions = append(exclusions, fmt.Sprintf("dst host %s", ip))
	}

	for _, port := range cfg.AllowedLeakDestinationPorts {
		exclusions = append(exclusions, fmt.Sprintf("tcp dst port %d", port))
		exclusions = append(exclusions, fmt.Sprintf("udp dst port %d", port))
	}

	negated := fmt.Sprintf("not (%s)", strings.Join(exclusions, " or "))

	if len(localIPs) == 0 {
		findings = append(findings, model.NewFinding(model.Warning,
			"local IP set unknown; source-host clause omitted, detection precision degraded"))
		return fmt.Sprintf("(ip or ip6) and %s", negated), findings
	}

	var sourceClauses []string
	for _, ip := range localIPs {
		sourceClauses = append(sourceClauses, fmt.Sprintf("src host %s", ip.String()))
	}
	sourceExpr := fmt.Sprintf("(%s)", strings.Join(sourceClauses, " or "))

	return fmt.Sprintf("(ip or ip6) and %s and %s", sourceExpr, negated), findings
}
