package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_HasSaneNetworkDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TunnelInterfaceName != "tun0" {
		t.Errorf("tunnel interface = %q, want tun0", cfg.TunnelInterfaceName)
	}
	if len(cfg.ExpectedDNSServers) != 4 {
		t.Errorf("expected 4 default DNS servers, got %d", len(cfg.ExpectedDNSServers))
	}
	if !cfg.CheckFirewallRules {
		t.Error("expected firewall checks enabled by default")
	}
	if cfg.CheckExternalIP {
		t.Error("expected external IP check disabled by default")
	}
}

func TestLoadFile_LayersOverDefaultsWithoutClearingUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := "tunnel_interface_name: wg0\ncheck_external_ip: true\n"
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TunnelInterfaceName != "wg0" {
		t.Errorf("tunnel interface = %q, want wg0 (overridden)", cfg.TunnelInterfaceName)
	}
	if !cfg.CheckExternalIP {
		t.Error("expected check_external_ip overridden to true")
	}
	if len(cfg.ExpectedDNSServers) != 4 {
		t.Errorf("expected default DNS servers to survive when not overridden, got %d", len(cfg.ExpectedDNSServers))
	}
	if cfg.RecentModThresholdSecs != 3600 {
		t.Errorf("expected default RecentModThresholdSecs to survive, got %d", cfg.RecentModThresholdSecs)
	}
}

func TestLoadFile_MissingFileReturnsError(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestParseIPList_SkipsBadEntriesWithoutAborting(t *testing.T) {
	ips, bad := ParseIPList([]string{"9.9.9.9", "not-an-ip", "::1"})
	if len(ips) != 2 {
		t.Errorf("expected 2 parsed IPs, got %d", len(ips))
	}
	if len(bad) != 1 || bad[0] != "not-an-ip" {
		t.Errorf("expected exactly one bad entry reported, got %v", bad)
	}
}
