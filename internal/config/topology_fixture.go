// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"net"
	"net/netip"

	"grimm.is/mcastctl/internal/topology"
)

// HostBinding is a host's fixed attachment point in the sample topology.
type HostBinding struct {
	Name   string
	IP     netip.Addr
	MAC    net.HardwareAddr
	Switch topology.DPID
	Port   topology.Port
}

// switchLink is one undeclared-port link between two switches; ports
// are assigned to both ends as the link is processed, in declaration order.
type switchLink struct {
	A, B topology.DPID
}

// Fixture is the eight-host, five-switch sample topology used by the
// end-to-end controller tests and by `mcastctl scenario`.
type Fixture struct {
	Hosts []HostBinding
	Links []topology.LinkEvent
}

// SampleTopology builds the fixture topology: s9↔{h1,h2,s10,s12},
// s10↔{h3,s11}, s11↔{h4,h5}, s12↔{h6,s13}, s13↔{h7,h8}, with switch
// ports allocated in link-declaration order.
func SampleTopology() Fixture {
	const (
		s9 topology.DPID = iota + 9
		s10
		s11
		s12
		s13
	)

	nextPort := make(map[topology.DPID]topology.Port)
	allocPort := func(sw topology.DPID) topology.Port {
		nextPort[sw]++
		return nextPort[sw]
	}

	var hosts []HostBinding
	attachHost := func(name string, ip string, mac string, sw topology.DPID) {
		hosts = append(hosts, HostBinding{
			Name:   name,
			IP:     netip.MustParseAddr(ip),
			MAC:    mustParseMAC(mac),
			Switch: sw,
			Port:   allocPort(sw),
		})
	}

	var links []topology.LinkEvent
	attachSwitch := func(a, b topology.DPID) {
		pa := allocPort(a)
		pb := allocPort(b)
		links = append(links,
			topology.LinkEvent{From: a, FromPort: pa, To: b, ToPort: pb, Cost: topology.DefaultCost},
			topology.LinkEvent{From: b, FromPort: pb, To: a, ToPort: pa, Cost: topology.DefaultCost},
		)
	}

	attachHost("h1", "10.0.0.1", "00:00:00:00:00:01", s9)
	attachHost("h2", "10.0.0.2", "00:00:00:00:00:02", s9)
	attachSwitch(s9, s10)
	attachSwitch(s9, s12)

	attachHost("h3", "10.0.0.3", "00:00:00:00:00:03", s10)
	attachSwitch(s10, s11)

	attachHost("h4", "10.0.0.4", "00:00:00:00:00:04", s11)
	attachHost("h5", "10.0.0.5", "00:00:00:00:00:05", s11)

	attachHost("h6", "10.0.0.6", "00:00:00:00:00:06", s12)
	attachSwitch(s12, s13)

	attachHost("h7", "10.0.0.7", "00:00:00:00:00:07", s13)
	attachHost("h8", "10.0.0.8", "00:00:00:00:00:08", s13)

	return Fixture{Hosts: hosts, Links: links}
}

func mustParseMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

// Apply installs every switch-to-switch link in the fixture onto b.
func (f Fixture) Apply(b *topology.Builder) {
	for _, link := range f.Links {
		b.HandleLinkUp(link)
	}
}

// Host looks up a host binding by name.
func (f Fixture) Host(name string) (HostBinding, bool) {
	for _, h := range f.Hosts {
		if h.Name == name {
			return h, true
		}
	}
	return HostBinding{}, false
}
