package ifacecheck

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/model"
)

const externalIPTimeout = 10 * time.Second
const defaultExternalIPURL = "https://ifconfig.me/ip"

type ipCheckResponse struct {
	IP string `json:"ip"`
}

// checkExternalIP issues the optional egress probe. Failure of the probe
// itself is a Warning; a confirmed mismatch against expected_external_ips
// is Critical.
func checkExternalIP(cfg config.Configuration, findings []model.Finding) (model.ExternalIPStatus, net.IP, []model.Finding) {
	url := cfg.ExternalIPCheckURL
	if url == "" {
		url = defaultExternalIPURL
	}

	client := &http.Client{Timeout: externalIPTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return model.ExternalIPCheckFailed, nil, append(findings, model.NewFinding(model.Warning,
			fmt.Sprintf("external IP check request failed: %v", err)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ExternalIPCheckFailed, nil, append(findings, model.NewFinding(model.Warning,
			fmt.Sprintf("external IP check read failed: %v", err)))
	}

	var ip net.IP
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var parsed ipCheckResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return model.ExternalIPCheckFailed, nil, append(findings, model.NewFinding(model.Warning,
				fmt.Sprintf("external IP check response was not valid JSON: %v", err)))
		}
		ip = net.ParseIP(strings.TrimSpace(parsed.IP))
	} else {
		ip = net.ParseIP(strings.TrimSpace(string(body)))
	}
	if ip == nil {
		return model.ExternalIPCheckFailed, nil, append(findings, model.NewFinding(model.Warning,
			"external IP check response did not contain a parseable IP"))
	}

	expected, _ := config.ParseIPList(cfg.ExpectedExternalIPs)
	if len(expected) == 0 {
		return model.ExternalIPNotChecked, ip, findings
	}
	for _, e := range expected {
		if e.Equal(ip) {
			return model.ExternalIPMatch, ip, findings
		}
	}
	return model.ExternalIPMismatch, ip, append(findings, model.NewFinding(model.Critical,
		fmt.Sprintf("external IP %s does not match any expected address", ip)))
}
