// Package model holds the types shared by every subsystem: the sub-check
// results produced by C1-C7 and the AuditReport the aggregator (C8) builds
// from them.
package model

import (
	"fmt"
	"net"
	"time"
)

// Severity classifies a Finding for scoring and for rendering.
type Severity int

const (
	Info Severity = iota
	Warning
	Critical
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Critical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Finding is a single structured observation. It replaces the string-prefix
// convention ("Warning: ...") the original tool used to dispatch log level;
// severity is carried as a field, text is rendered at the boundary only.
type Finding struct {
	Text     string
	Severity Severity
}

func NewFinding(sev Severity, text string) Finding {
	return Finding{Text: text, Severity: sev}
}

// Protocol is the transport-layer protocol of a ListeningSocket.
type Protocol string

const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// ListeningSocket is a decoded row from /proc/net/{tcp,udp,tcp6,udp6}.
// Identity is (Protocol, LocalIP, LocalPort): ReadListeningSockets dedupes
// on those three fields. UID and Inode are best-effort.
type ListeningSocket struct {
	Protocol  Protocol
	LocalIP   net.IP
	LocalPort uint16
	UID       *uint32
	Inode     *uint64
}

// ProcessInfo is a /proc/<pid> snapshot.
type ProcessInfo struct {
	PID     int
	UID     uint32
	Name    string
	Cmdline string
}

// UserLogin is a decoded utmp "user process" record.
type UserLogin struct {
	User      string
	Terminal  string
	Host      string
	Timestamp *time.Time
}

// KernelModuleInfo is a line of /proc/modules.
type KernelModuleInfo struct {
	Name string
}

// SystemdUnitInfo is a parsed row from a service-manager listing.
type SystemdUnitInfo struct {
	Name  string
	Type  string // "service" or "timer"
	State string
}

// LeakEvent is a single packet the capture filter admitted and the parser
// decoded: traffic that left the host outside the tunnel and outside every
// configured allow-list.
type LeakEvent struct {
	Timestamp     time.Time
	InterfaceName string
	SourceIP      net.IP
	DestIP        net.IP
	Protocol      string
	SourcePort    *uint16
	DestPort      *uint16
	PacketLen     uint32
}

// Summary renders a LeakEvent the same way everywhere it is reported: the
// flat findings list, the critical-findings subset, and the human-readable
// report all share this text so the two lists stay structurally
// comparable.
func (e LeakEvent) Summary() string {
	srcPort := "N/A"
	if e.SourcePort != nil {
		srcPort = fmt.Sprintf("%d", *e.SourcePort)
	}
	dstPort := "N/A"
	if e.DestPort != nil {
		dstPort = fmt.Sprintf("%d", *e.DestPort)
	}
	return fmt.Sprintf("leak: iface=%s proto=%s src=%s:%s dst=%s:%s len=%d",
		e.InterfaceName, e.Protocol, e.SourceIP, srcPort, e.DestIP, dstPort, e.PacketLen)
}

// --- Per-subsystem results ---

type PortCheckResult struct {
	Sockets            []ListeningSocket
	UnexpectedSockets  []ListeningSocket
	Findings           []Finding
}

type ProcessCheckResult struct {
	Processes []ProcessInfo
	Findings  []Finding
}

type LoginCheckResult struct {
	Logins              []UserLogin
	DisallowedLoginCount int
	Findings            []Finding
}

type FileCheckResult struct {
	RecentlyModifiedCount int
	Findings              []Finding
}

type ModuleCheckResult struct {
	Modules               []KernelModuleInfo
	Aborted                bool
	DisallowedLoadedCount  int
	MissingRequiredCount   int
	Findings               []Finding
}

type SystemdCheckResult struct {
	Units                  []SystemdUnitInfo
	DisallowedServiceCount int
	DisallowedTimerCount   int
	Findings               []Finding
}

type FirewallCheckResult struct {
	Dump        string
	Truncated   bool
	Unavailable bool
	Findings    []Finding
}

// HostAuditResult is C4's composed output.
type HostAuditResult struct {
	PortCheck     PortCheckResult
	ProcessCheck  ProcessCheckResult
	LoginCheck    LoginCheckResult
	FileCheck     FileCheckResult
	ModuleCheck   ModuleCheckResult
	SystemdCheck  SystemdCheckResult
	FirewallCheck *FirewallCheckResult // nil when disabled
	AllFindings   []Finding
}

// IPNetworkMatchStatus describes how the tunnel interface's addresses
// compare against the expected CIDR.
type IPNetworkMatchStatus int

const (
	NetworkNotChecked IPNetworkMatchStatus = iota
	NetworkMatch
	NetworkMismatch
	NetworkNoAddresses
)

// ExternalIPStatus describes the outcome of the optional egress probe.
type ExternalIPStatus int

const (
	ExternalIPNotChecked ExternalIPStatus = iota
	ExternalIPMatch
	ExternalIPMismatch
	ExternalIPCheckFailed
)

// DNSMatchStatus describes the resolver-configuration comparison.
type DNSMatchStatus int

const (
	DNSNotChecked DNSMatchStatus = iota
	DNSMatch
	DNSMismatch
	DNSUnreadable
)

type InterfaceCheckResult struct {
	InterfaceName       string
	Found               bool
	IsUp                *bool
	IsRunning           *bool
	IsLoopback          *bool
	IsPointToPoint      *bool
	Addresses           []net.IPNet
	MACAddress          string
	NetworkMatchStatus  IPNetworkMatchStatus
	ExternalIPStatus    ExternalIPStatus
	ObservedExternalIP  net.IP
	Findings            []Finding
}

type DNSCheckResult struct {
	ServersExpected []net.IP
	ServersFound    []net.IP
	MatchStatus     DNSMatchStatus
	Findings        []Finding
}

// OpsecResult is the supplemental operational-security sub-check.
type OpsecResult struct {
	HostsFileFindings []Finding
	EnvVarFindings    []Finding
	AllFindings       []Finding
}

// TrafficMonitorResult is C6/C7's composed output.
type TrafficMonitorResult struct {
	DetectedLeaks    []LeakEvent
	PacketsProcessed uint64
	Incomplete       bool // true when no interface could be opened for capture
	Findings         []Finding
}

// AuditReport is the top-level, immutable result of one run.
type AuditReport struct {
	InterfaceCheck  InterfaceCheckResult
	DNSCheck        DNSCheckResult
	HostAudit       HostAuditResult
	Opsec           OpsecResult
	TrafficMonitor  TrafficMonitorResult
	AllFindings     []Finding
	Score           float64
	CriticalFindings []Finding
}
