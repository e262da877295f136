package ifacecheck

import (
	"net"
	"testing"

	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/model"
)

func ipNet(s string) net.IPNet {
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return net.IPNet{IP: ip, Mask: n.Mask}
}

func TestEvaluateNetwork_NoExpectedNetworkConfiguredIsNotChecked(t *testing.T) {
	cfg := config.Configuration{}
	status, findings := evaluateNetwork(cfg, []net.IPNet{ipNet("10.8.0.2/24")}, nil)
	if status != model.NetworkNotChecked {
		t.Errorf("status = %v, want NetworkNotChecked", status)
	}
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %v", findings)
	}
}

func TestEvaluateNetwork_NoAddressesIsFlagged(t *testing.T) {
	cfg := config.Configuration{}
	status, findings := evaluateNetwork(cfg, nil, nil)
	if status != model.NetworkNoAddresses {
		t.Errorf("status = %v, want NetworkNoAddresses", status)
	}
	if len(findings) != 1 {
		t.Errorf("expected one finding, got %v", findings)
	}
}

func TestEvaluateNetwork_AddressInsideExpectedNetworkMatches(t *testing.T) {
	cfg := config.Configuration{ExpectedTunnelIPNetwork: "10.8.0.0/24"}
	status, findings := evaluateNetwork(cfg, []net.IPNet{ipNet("10.8.0.2/24")}, nil)
	if status != model.NetworkMatch {
		t.Errorf("status = %v, want NetworkMatch", status)
	}
	if len(findings) != 0 {
		t.Errorf("expected no findings on match, got %v", findings)
	}
}

func TestEvaluateNetwork_AddressOutsideExpectedNetworkIsCriticalMismatch(t *testing.T) {
	cfg := config.Configuration{ExpectedTunnelIPNetwork: "10.8.0.0/24"}
	status, findings := evaluateNetwork(cfg, []net.IPNet{ipNet("192.168.1.5/24")}, nil)
	if status != model.NetworkMismatch {
		t.Errorf("status = %v, want NetworkMismatch", status)
	}
	if len(findings) != 1 || findings[0].Severity != model.Critical {
		t.Errorf("expected one critical finding, got %v", findings)
	}
}

func TestEvaluateNetwork_InvalidExpectedNetworkIsWarnedNotChecked(t *testing.T) {
	cfg := config.Configuration{ExpectedTunnelIPNetwork: "not-a-cidr"}
	status, findings := evaluateNetwork(cfg, []net.IPNet{ipNet("10.8.0.2/24")}, nil)
	if status != model.NetworkNotChecked {
		t.Errorf("status = %v, want NetworkNotChecked", status)
	}
	if len(findings) != 1 || findings[0].Severity != model.Warning {
		t.Errorf("expected one warning finding, got %v", findings)
	}
}
