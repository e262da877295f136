package procfs

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"regexp"

	"github.com/osiriscare/vpnsentry/internal/model"
)

var nameserverRe = regexp.MustCompile(`^\s*nameserver\s+(\S+)`)

// ReadResolvConf parses /etc/resolv.conf for nameserver lines. An
// unparseable token emits a Warning finding but does not abort the parse.
func ReadResolvConf() ([]net.IP, []model.Finding, error) {
	f, err := os.Open("/etc/resolv.conf")
	if err != nil {
		return nil, nil, fmt.Errorf("opening /etc/resolv.conf: %w", err)
	}
	defer f.Close()

	var servers []net.IP
	var findings []model.Finding

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := nameserverRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		ip := net.ParseIP(m[1])
		if ip == nil {
			findings = append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("unparseable nameserver entry %q in /etc/resolv.conf", m[1])))
			continue
		}
		servers = append(servers, ip)
	}
	return servers, findings, nil
}
