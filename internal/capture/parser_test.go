package capture

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func buildTCPv4(t *testing.T, src, dst string, srcPort, dstPort uint16) gopacket.Packet {
	t.Helper()
	eth := &layers.Ethernet{EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.ParseIP(src).To4(),
		DstIP:    net.ParseIP(dst).To4(),
	}
	tcp := &layers.TCP{SrcPort: layers.TCPPort(srcPort), DstPort: layers.TCPPort(dstPort)}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatal(err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp); err != nil {
		t.Fatal(err)
	}
	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func buildARP(t *testing.T) gopacket.Packet {
	t.Helper()
	eth := &layers.Ethernet{EthernetType: layers.EthernetTypeARP}
	arp := &layers.ARP{
		AddrType:        layers.LinkTypeEthernet,
		Protocol:        layers.EthernetTypeIPv4,
		HwAddressSize:   6,
		ProtAddressSize: 4,
		Operation:       layers.ARPRequest,
		SourceHwAddress: []byte{0, 0, 0, 0, 0, 0},
		SourceProtAddress: net.ParseIP("192.0.2.1").To4(),
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    net.ParseIP("192.0.2.2").To4(),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, arp); err != nil {
		t.Fatal(err)
	}
	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func TestParsePacket_TCPv4ProducesEventWithPorts(t *testing.T) {
	pkt := buildTCPv4(t, "10.0.0.5", "203.0.113.9", 54321, 443)

	event, ok := parsePacket(pkt, "eth0")
	if !ok {
		t.Fatal("expected an event for a well formed TCP/IPv4 packet")
	}
	if event.Protocol != "TCP" {
		t.Errorf("protocol = %q, want TCP", event.Protocol)
	}
	if event.InterfaceName != "eth0" {
		t.Errorf("interface name = %q, want eth0", event.InterfaceName)
	}
	if event.SourcePort == nil || *event.SourcePort != 54321 {
		t.Errorf("source port = %v, want 54321", event.SourcePort)
	}
	if event.DestPort == nil || *event.DestPort != 443 {
		t.Errorf("dest port = %v, want 443", event.DestPort)
	}
	if !net.IP(event.SourceIP).Equal(net.ParseIP("10.0.0.5")) {
		t.Errorf("source ip = %v, want 10.0.0.5", event.SourceIP)
	}
}

func TestParsePacket_ARPProducesNoEvent(t *testing.T) {
	pkt := buildARP(t)
	if _, ok := parsePacket(pkt, "eth0"); ok {
		t.Error("expected ARP traffic to produce no leak event")
	}
}

func TestParsePacket_NonEthernetProducesNoEvent(t *testing.T) {
	pkt := gopacket.NewPacket([]byte{0x01, 0x02, 0x03}, layers.LayerTypeIPv4, gopacket.Default)
	if _, ok := parsePacket(pkt, "eth0"); ok {
		t.Error("expected a packet with no recognised Ethernet layer to produce no event")
	}
}
