// Package ifacecheck implements the tunnel-interface verifier and the
// resolver-configuration comparison (C3).
package ifacecheck

import (
	"fmt"
	"net"

	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/model"
)

func boolPtr(b bool) *bool { return &b }

// VerifyInterface enumerates link-layer interfaces, finds the configured
// tunnel interface, and classifies its state and addresses.
func VerifyInterface(cfg config.Configuration) model.InterfaceCheckResult {
	result := model.InterfaceCheckResult{InterfaceName: cfg.TunnelInterfaceName}

	ifaces, err := net.Interfaces()
	if err != nil {
		result.Findings = append(result.Findings, model.NewFinding(model.Warning,
			fmt.Sprintf("failed to enumerate network interfaces: %v", err)))
		return result
	}

	var found *net.Interface
	for i := range ifaces {
		if ifaces[i].Name == cfg.TunnelInterfaceName {
			found = &ifaces[i]
			break
		}
	}
	if found == nil {
		result.Findings = append(result.Findings, model.NewFinding(model.Critical,
			fmt.Sprintf("tunnel interface %q not found", cfg.TunnelInterfaceName)))
		return result
	}
	result.Found = true

	isUp := found.Flags&net.FlagUp != 0
	isRunning := found.Flags&net.FlagRunning != 0
	isLoopback := found.Flags&net.FlagLoopback != 0
	isP2P := found.Flags&net.FlagPointToPoint != 0
	result.IsUp = boolPtr(isUp)
	result.IsRunning = boolPtr(isRunning)
	result.IsLoopback = boolPtr(isLoopback)
	result.IsPointToPoint = boolPtr(isP2P)
	result.MACAddress = found.HardwareAddr.String()

	if !isUp {
		result.Findings = append(result.Findings, model.NewFinding(model.Critical,
			fmt.Sprintf("tunnel interface %q is down", cfg.TunnelInterfaceName)))
	} else if !isRunning {
		result.Findings = append(result.Findings, model.NewFinding(model.Warning,
			fmt.Sprintf("tunnel interface %q is up but not running", cfg.TunnelInterfaceName)))
	}
	if isLoopback {
		result.Findings = append(result.Findings, model.NewFinding(model.Warning,
			fmt.Sprintf("tunnel interface %q is a loopback interface", cfg.TunnelInterfaceName)))
	}

	addrs, err := found.Addrs()
	if err == nil {
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok {
				result.Addresses = append(result.Addresses, *ipnet)
			}
		}
	}

	if isUp {
		result.NetworkMatchStatus, result.Findings = evaluateNetwork(cfg, result.Addresses, result.Findings)
	}

	if cfg.CheckExternalIP {
		result.ExternalIPStatus, result.ObservedExternalIP, result.Findings = checkExternalIP(cfg, result.Findings)
	}

	return result
}

func evaluateNetwork(cfg config.Configuration, addrs []net.IPNet, findings []model.Finding) (model.IPNetworkMatchStatus, []model.Finding) {
	if cfg.ExpectedTunnelIPNetwork == "" {
		if len(addrs) == 0 {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("tunnel interface %q is up but has no addresses", cfg.TunnelInterfaceName)))
			return model.NetworkNoAddresses, findings
		}
		return model.NetworkNotChecked, findings
	}

	_, expected, err := net.ParseCIDR(cfg.ExpectedTunnelIPNetwork)
	if err != nil {
		findings = append(findings, model.NewFinding(model.Warning,
			fmt.Sprintf("invalid expected_tunnel_ip_network %q: %v", cfg.ExpectedTunnelIPNetwork, err)))
		return model.NetworkNotChecked, findings
	}

	for _, a := range addrs {
		if expected.Contains(a.IP) {
			return model.NetworkMatch, findings
		}
	}
	findings = append(findings, model.NewFinding(model.Critical,
		fmt.Sprintf("tunnel interface %q has no address in expected network %s", cfg.TunnelInterfaceName, cfg.ExpectedTunnelIPNetwork)))
	return model.NetworkMismatch, findings
}

// LocalIPs returns the non-loopback, non-tunnel IPs currently assigned to
// the host's other interfaces, for the filter compiler (C5).
func LocalIPs(tunnelInterfaceName string) ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var ips []net.IP
	for _, iface := range ifaces {
		if iface.Name == tunnelInterfaceName {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok || ipnet.IP.IsLoopback() {
				continue
			}
			ips = append(ips, ipnet.IP)
		}
	}
	return ips, nil
}
