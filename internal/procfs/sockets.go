// Package procfs holds the pure decoders for kernel-exposed surfaces:
// /proc/net/{tcp,udp,tcp6,udp6}, /proc/modules, /proc/<pid>/*,
// /etc/resolv.conf, /etc/hosts and utmp. None of these functions invoke
// external commands; they only read and parse.
package procfs

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/osiriscare/vpnsentry/internal/model"
)

const listenState = "0A"

// socketTables maps each /proc/net/* path to its protocol and IP family.
var socketTables = []struct {
	path     string
	protocol model.Protocol
	v6       bool
}{
	{"/proc/net/tcp", model.TCP, false},
	{"/proc/net/tcp6", model.TCP, true},
	{"/proc/net/udp", model.UDP, false},
	{"/proc/net/udp6", model.UDP, true},
}

// ReadListeningSockets parses all four kernel socket tables and returns the
// deduplicated set of sockets worth reporting: LISTEN rows for TCP, every
// row for UDP (UDP has no LISTEN state; "bound" is the analogue).
func ReadListeningSockets() ([]model.ListeningSocket, []model.Finding) {
	var out []model.ListeningSocket
	var findings []model.Finding
	seen := make(map[string]bool)

	for _, table := range socketTables {
		sockets, f := readSocketTable(table.path, table.protocol)
		findings = append(findings, f...)
		for _, s := range sockets {
			key := fmt.Sprintf("%s|%s|%d", s.Protocol, s.LocalIP.String(), s.LocalPort)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out, findings
}

func readSocketTable(path string, protocol model.Protocol) ([]model.ListeningSocket, []model.Finding) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[procfs] %s not present, skipping", path)
			return nil, nil
		}
		return nil, []model.Finding{model.NewFinding(model.Warning,
			fmt.Sprintf("failed to open %s: %v", path, err))}
	}
	defer f.Close()

	var sockets []model.ListeningSocket
	var findings []model.Finding

	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			continue // header row
		}
		fields := strings.Fields(line)
		if len(fields) < 10 {
			log.Printf("[procfs] malformed line in %s (fewer than 10 fields), skipping", path)
			continue
		}

		if protocol == model.TCP && fields[3] != listenState {
			continue
		}

		ip, port, err := decodeAddrPort(fields[1])
		if err != nil {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("%s: could not decode local address %q: %v", path, fields[1], err)))
			continue
		}

		sock := model.ListeningSocket{Protocol: protocol, LocalIP: ip, LocalPort: port}

		if uid, err := strconv.ParseUint(fields[7], 10, 32); err == nil {
			v := uint32(uid)
			sock.UID = &v
		} else {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("%s: could not parse uid field %q", path, fields[7])))
		}
		if inode, err := strconv.ParseUint(fields[9], 10, 64); err == nil {
			sock.Inode = &inode
		} else {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("%s: could not parse inode field %q", path, fields[9])))
		}

		sockets = append(sockets, sock)
	}
	return sockets, findings
}

// decodeAddrPort decodes a kernel "hexaddr:hexport" field into an IP and
// port. IPv4 addresses are written as 8 hex chars holding the 32-bit word
// in the host's native byte order; on the little-endian platforms this
// tool targets that means the hex text, read as a big-endian integer, must
// be re-emitted in little-endian byte order to land on the address
// userspace tools would print. IPv6 addresses are 32 hex chars read
// directly as 16 bytes, no reordering.
func decodeAddrPort(field string) (net.IP, uint16, error) {
	parts := strings.SplitN(field, ":", 2)
	if len(parts) != 2 {
		return nil, 0, fmt.Errorf("missing ':' separator")
	}
	ipHex, portHex := parts[0], parts[1]

	portBytes, err := hex.DecodeString(portHex)
	if err != nil || len(portBytes) != 2 {
		return nil, 0, fmt.Errorf("bad port hex %q", portHex)
	}
	port := binary.BigEndian.Uint16(portBytes)

	switch len(ipHex) {
	case 8:
		raw, err := hex.DecodeString(ipHex)
		if err != nil {
			return nil, 0, fmt.Errorf("bad ipv4 hex %q: %w", ipHex, err)
		}
		val := binary.BigEndian.Uint32(raw)
		octets := make([]byte, 4)
		binary.LittleEndian.PutUint32(octets, val)
		return net.IPv4(octets[0], octets[1], octets[2], octets[3]), port, nil
	case 32:
		raw, err := hex.DecodeString(ipHex)
		if err != nil {
			return nil, 0, fmt.Errorf("bad ipv6 hex %q: %w", ipHex, err)
		}
		return net.IP(raw), port, nil
	default:
		return nil, 0, fmt.Errorf("unexpected address hex length %d", len(ipHex))
	}
}
