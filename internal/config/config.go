// Package config defines the run configuration and its YAML loading,
// following the field-by-field yaml-tagged style of the daemon config this
// tool's structure is adapted from.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration is immutable for the duration of a run.
type Configuration struct {
	// Network checks
	TunnelInterfaceName        string   `yaml:"tunnel_interface_name"`
	ExpectedTunnelIPNetwork    string   `yaml:"expected_tunnel_ip_network,omitempty"`
	ExpectedDNSServers         []string `yaml:"expected_dns_servers,omitempty"`
	PhysicalInterfaceNames     []string `yaml:"physical_interface_names,omitempty"`
	TunnelServerIPs            []string `yaml:"tunnel_server_ips,omitempty"`
	LocalSubnets               []string `yaml:"local_subnets,omitempty"`
	CheckFirewallRules         bool     `yaml:"check_firewall_rules"`
	CheckExternalIP            bool     `yaml:"check_external_ip"`
	ExternalIPCheckURL         string   `yaml:"external_ip_check_url,omitempty"`
	ExpectedExternalIPs        []string `yaml:"expected_external_ips,omitempty"`
	AllowedLeakDestinationIPs  []string `yaml:"allowed_leak_destination_ips,omitempty"`
	AllowedLeakDestinationPorts []int   `yaml:"allowed_leak_destination_ports,omitempty"`

	// Host audit policy
	AllowedListeningTCPPorts     []int    `yaml:"allowed_listening_tcp_ports,omitempty"`
	AllowedListeningUDPPorts     []int    `yaml:"allowed_listening_udp_ports,omitempty"`
	WatchedFilesForModification  []string `yaml:"watched_files_for_modification,omitempty"`
	RecentModThresholdSecs       int      `yaml:"recent_mod_threshold_secs"`
	AllowedLoginUsers            []string `yaml:"allowed_login_users,omitempty"`
	AllowedLoginHosts            []string `yaml:"allowed_login_hosts,omitempty"`
	RequiredKernelModules        []string `yaml:"required_kernel_modules,omitempty"`
	DisallowedKernelModules       []string `yaml:"disallowed_kernel_modules,omitempty"`
	EnforceRequiredModulesOnly   bool     `yaml:"enforce_required_modules_only"`
	DisallowedProcessNames       []string `yaml:"disallowed_process_names,omitempty"`
	DisallowedSystemdServices    []string `yaml:"disallowed_systemd_services,omitempty"`
	DisallowedSystemdTimers      []string `yaml:"disallowed_systemd_timers,omitempty"`
	DisallowedHostsEntries       []string `yaml:"disallowed_hosts_entries,omitempty"`
	DisallowedEnvVars            []string `yaml:"disallowed_env_vars,omitempty"`

	// Fleet / ambient extras (SPEC_FULL supplements)
	RemoteHosts         []RemoteHost `yaml:"remote_hosts,omitempty"`
	FleetReportEndpoint string       `yaml:"fleet_report_endpoint,omitempty"`
	HistoryDBPath       string       `yaml:"history_db_path,omitempty"`
	DaemonIntervalSecs  int          `yaml:"daemon_interval_secs,omitempty"`
}

// RemoteHost is one entry in the optional fleet-audit list.
type RemoteHost struct {
	Hostname       string  `yaml:"hostname"`
	Port           int     `yaml:"port"`
	Username       string  `yaml:"username"`
	PrivateKeyPath string  `yaml:"private_key_path,omitempty"`
	Password       *string `yaml:"password,omitempty"`
}

// DefaultConfig mirrors the original tool's hardcoded defaults: tun0,
// Quad9 DNS, common RFC1918/ULA local subnets, SSH-only on TCP, DHCP
// client on UDP, and the standard watched-file list.
func DefaultConfig() Configuration {
	return Configuration{
		TunnelInterfaceName: "tun0",
		ExpectedDNSServers: []string{
			"9.9.9.9", "149.112.112.112", "2620:fe::fe", "2620:fe::9",
		},
		LocalSubnets: []string{
			"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
			"fe80::/10", "fc00::/7",
		},
		CheckFirewallRules: true,
		CheckExternalIP:    false,

		AllowedListeningTCPPorts:    []int{22},
		AllowedListeningUDPPorts:    []int{68},
		RecentModThresholdSecs:      3600,
		WatchedFilesForModification: []string{
			"/etc/passwd", "/etc/shadow", "/etc/group", "/etc/gshadow",
			"/etc/sudoers", "/etc/hosts", "/etc/resolv.conf",
		},
		DisallowedKernelModules: []string{"dummy", "floppy"},
		DisallowedProcessNames: []string{
			"nc", "netcat", "ncat", "socat", "mimikatz", "meterpreter",
		},
		DisallowedEnvVars: []string{"LD_PRELOAD", "LD_LIBRARY_PATH"},
	}
}

// LoadFile reads a YAML configuration file layered on top of DefaultConfig:
// unset fields in the file keep their default value.
func LoadFile(path string) (Configuration, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseIPList converts a string-slice config field to net.IP, skipping (and
// returning) entries that fail to parse rather than aborting.
func ParseIPList(in []string) (ips []net.IP, bad []string) {
	for _, s := range in {
		ip := net.ParseIP(s)
		if ip == nil {
			bad = append(bad, s)
			continue
		}
		ips = append(ips, ip)
	}
	return ips, bad
}
