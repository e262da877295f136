// Package capture implements the capture supervisor (C6) and packet
// parser (C7): one worker per physical interface, fanning PacketProcessed
// ticks and LeakEvents into a single channel the supervisor drains.
package capture

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/osiriscare/vpnsentry/internal/model"
)

// parsePacket decodes Ethernet -> {IPv4, IPv6, ARP, other} -> TCP/UDP/other
// into a LeakEvent. ARP produces no event. Any malformed or unrecognised
// layer produces no event (a zero LeakEvent and false).
func parsePacket(pkt gopacket.Packet, interfaceName string) (model.LeakEvent, bool) {
	ethLayer := pkt.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return model.LeakEvent{}, false
	}

	if pkt.Layer(layers.LayerTypeARP) != nil {
		return model.LeakEvent{}, false
	}

	var srcIP, dstIP []byte
	var protocolName string

	if ip4 := pkt.Layer(layers.LayerTypeIPv4); ip4 != nil {
		v := ip4.(*layers.IPv4)
		srcIP, dstIP = v.SrcIP, v.DstIP
		protocolName = v.Protocol.String()
	} else if ip6 := pkt.Layer(layers.LayerTypeIPv6); ip6 != nil {
		v := ip6.(*layers.IPv6)
		srcIP, dstIP = v.SrcIP, v.DstIP
		protocolName = v.NextHeader.String()
	} else {
		return model.LeakEvent{}, false
	}

	event := model.LeakEvent{
		Timestamp:     time.Now(),
		InterfaceName: interfaceName,
		SourceIP:      srcIP,
		DestIP:        dstIP,
		Protocol:      protocolName,
		PacketLen:     uint32(len(pkt.Data())),
	}

	if tcp := pkt.Layer(layers.LayerTypeTCP); tcp != nil {
		v := tcp.(*layers.TCP)
		event.Protocol = "TCP"
		sp, dp := uint16(v.SrcPort), uint16(v.DstPort)
		event.SourcePort, event.DestPort = &sp, &dp
	} else if udp := pkt.Layer(layers.LayerTypeUDP); udp != nil {
		v := udp.(*layers.UDP)
		event.Protocol = "UDP"
		sp, dp := uint16(v.SrcPort), uint16(v.DstPort)
		event.SourcePort, event.DestPort = &sp, &dp
	}

	return event, true
}
