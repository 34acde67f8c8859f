// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ingest turns raw packet-in payloads into the domain events
// the membership tracker and streamer tracker consume, using gopacket
// to decode Ethernet/IPv4/IGMP.
package ingest

import (
	"net/netip"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"grimm.is/mcastctl/internal/errors"
	"grimm.is/mcastctl/internal/membership"
	"grimm.is/mcastctl/internal/streamer"
	"grimm.is/mcastctl/internal/topology"
)

// Decoded is the result of decoding one packet-in: at most one of its
// fields is populated, matching the mutually-exclusive branches of
// spec.md §6 (an IGMP control packet, or a multicast data packet;
// anything else decodes to neither and is ignored).
type Decoded struct {
	Records []membership.Record
	Data    *streamer.DataPacket
}

// ipToAddr converts a decoded net.IP to netip.Addr, normalizing to
// its 4-byte form so map keys compare equal regardless of how the
// originating library represented the address.
func ipToAddr(raw []byte) (netip.Addr, bool) {
	addr, ok := netip.AddrFromSlice(raw)
	if !ok {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isMulticast(addr netip.Addr) bool {
	return addr.Is4() && addr.As4()[0] >= 224 && addr.As4()[0] <= 239
}

// DecodePacketIn decodes one packet observed entering sw on port, per
// spec.md §6: IGMP control traffic becomes membership.Record values,
// and non-IGMP traffic destined to a multicast group becomes a
// streamer.DataPacket. Any other packet yields a zero Decoded with no
// error.
func DecodePacketIn(sw topology.DPID, port topology.Port, raw []byte) (Decoded, error) {
	pkt := gopacket.NewPacket(raw, layers.LayerTypeEthernet, gopacket.NoCopy)
	if errLayer := pkt.ErrorLayer(); errLayer != nil {
		return Decoded{}, errors.Wrap(errLayer.Error(), errors.KindValidation, "decode packet-in")
	}

	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return Decoded{}, nil
	}
	ip4, ok := ipLayer.(*layers.IPv4)
	if !ok {
		return Decoded{}, nil
	}

	dst, ok := ipToAddr(ip4.DstIP)
	if !ok || !isMulticast(dst) {
		return Decoded{}, nil
	}

	if igmpLayer := pkt.Layer(layers.LayerTypeIGMP); igmpLayer != nil {
		records, err := decodeIGMP(sw, port, igmpLayer)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Records: records}, nil
	}

	src, ok := ipToAddr(ip4.SrcIP)
	if !ok {
		return Decoded{}, errors.New(errors.KindValidation, "multicast data packet with unparseable source address")
	}

	return Decoded{Data: &streamer.DataPacket{Switch: sw, Group: dst, Source: src}}, nil
}

func decodeIGMP(sw topology.DPID, port topology.Port, l gopacket.Layer) ([]membership.Record, error) {
	switch v := l.(type) {
	case *layers.IGMPv1or2:
		return decodeIGMPv1or2(sw, port, v)
	case *layers.IGMPv3MembershipReport:
		return decodeIGMPv3Report(sw, port, v)
	default:
		// Queries and anything else carry no membership state change.
		return nil, nil
	}
}

func decodeIGMPv1or2(sw topology.DPID, port topology.Port, v *layers.IGMPv1or2) ([]membership.Record, error) {
	group, ok := ipToAddr(v.GroupAddress)
	if !ok {
		return nil, errors.New(errors.KindValidation, "malformed IGMP group address")
	}

	switch v.Type {
	case layers.IGMPMembershipReportV1, layers.IGMPMembershipReportV2:
		return []membership.Record{{
			Switch: sw, Port: port, Group: group,
			Type: membership.ModeIsExclude,
		}}, nil
	case layers.IGMPLeaveGroup:
		return []membership.Record{{
			Switch: sw, Port: port, Group: group,
			Type: membership.ChangeToIncludeMode,
		}}, nil
	default:
		return nil, nil
	}
}

func decodeIGMPv3Report(sw topology.DPID, port topology.Port, v *layers.IGMPv3MembershipReport) ([]membership.Record, error) {
	records := make([]membership.Record, 0, len(v.GroupRecords))
	for _, gr := range v.GroupRecords {
		group, ok := ipToAddr(gr.MulticastAddress)
		if !ok {
			return nil, errors.New(errors.KindValidation, "malformed IGMPv3 group record")
		}

		recType, ok := recordType(gr.Type)
		if !ok {
			continue
		}

		sources := make(map[netip.Addr]bool, len(gr.SourceAddresses))
		for _, s := range gr.SourceAddresses {
			if addr, ok := ipToAddr(s); ok {
				sources[addr] = true
			}
		}

		records = append(records, membership.Record{
			Switch: sw, Port: port, Group: group,
			Type:    recType,
			Sources: sources,
		})
	}
	return records, nil
}

func recordType(t layers.IGMPv3GroupRecordType) (membership.RecordType, bool) {
	switch t {
	case layers.IGMPIsIn:
		return membership.ModeIsInclude, true
	case layers.IGMPIsEx:
		return membership.ModeIsExclude, true
	case layers.IGMPToIn:
		return membership.ChangeToIncludeMode, true
	case layers.IGMPToEx:
		return membership.ChangeToExcludeMode, true
	case layers.IGMPAllow:
		return membership.AllowNewSources, true
	case layers.IGMPBlock:
		return membership.BlockOldSources, true
	default:
		return 0, false
	}
}
