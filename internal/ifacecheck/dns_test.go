package ifacecheck

import (
	"net"
	"testing"
)

func TestIPSetEqual_OrderIndependent(t *testing.T) {
	a := []net.IP{net.ParseIP("9.9.9.9"), net.ParseIP("149.112.112.112")}
	b := []net.IP{net.ParseIP("149.112.112.112"), net.ParseIP("9.9.9.9")}
	if !ipSetEqual(a, b) {
		t.Error("expected equal sets regardless of order")
	}
}

func TestIPSetDiff_ReportsMissingAndUnexpected(t *testing.T) {
	expected := []net.IP{net.ParseIP("9.9.9.9"), net.ParseIP("149.112.112.112")}
	found := []net.IP{net.ParseIP("8.8.8.8")}

	missing, unexpected := ipSetDiff(expected, found)
	if len(missing) != 2 {
		t.Errorf("expected 2 missing servers, got %d", len(missing))
	}
	if len(unexpected) != 1 || !unexpected[0].Equal(net.ParseIP("8.8.8.8")) {
		t.Errorf("expected 8.8.8.8 reported unexpected, got %v", unexpected)
	}
}
