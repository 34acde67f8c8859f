// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ofnet drives real switch connections over the OpenFlow 1.3
// wire protocol, using antrea.io/libOpenflow for message encoding and
// antrea.io/ofnet/ofctrl for per-switch connection lifecycle.
package ofnet

import (
	"fmt"
	"net"
	"sync"

	"antrea.io/libOpenflow/openflow13"
	"antrea.io/ofnet/ofctrl"

	"grimm.is/mcastctl/internal/logging"
	"grimm.is/mcastctl/internal/openflow"
	"grimm.is/mcastctl/internal/topology"
)

// Switch wraps one live ofctrl connection and implements openflow.SwitchDriver.
type Switch struct {
	dpid topology.DPID
	ofs  *ofctrl.OFSwitch
}

// Send translates a FlowMod into an OpenFlow 1.3 flow_mod message and
// writes it to the switch.
func (s *Switch) Send(mod openflow.FlowMod) error {
	fm := openflow13.NewFlowMod()
	fm.Priority = openflow.Priority
	fm.Match = openflow13.NewMatch()
	fm.Match.AddField(*openflow13.NewEthTypeField(mod.Match.EthType))

	if mod.Match.Dst.IsValid() {
		fm.Match.AddField(*openflow13.NewIpv4DstField(mod.Match.Dst.AsSlice(), nil))
	}
	if mod.Match.Src.IsValid() {
		fm.Match.AddField(*openflow13.NewIpv4SrcField(mod.Match.Src.AsSlice(), nil))
	}

	switch mod.Command {
	case openflow.CommandDelete:
		fm.Command = openflow13.FC_DELETE
	default:
		fm.Command = openflow13.FC_ADD
		instr := openflow13.NewInstrApplyActions()
		for _, act := range mod.Actions {
			instr.AddAction(openflow13.NewActionOutput(uint32(act.OutputPort)), true)
		}
		fm.AddInstruction(instr)
	}

	return s.ofs.Send(fm)
}

// Pool is an openflow.ConnectionPool backed by live ofctrl switch
// connections, registered as they complete their OpenFlow handshake.
type Pool struct {
	mu     sync.RWMutex
	conns  map[topology.DPID]*Switch
	logger *logging.Logger
}

// NewPool creates an empty Pool. Register is called by the controller's
// ofctrl.AppInterface implementation as switches connect and disconnect.
func NewPool(logger *logging.Logger) *Pool {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pool{
		conns:  make(map[topology.DPID]*Switch),
		logger: logger.With("component", "ofnet"),
	}
}

// Register associates a DPID with a live switch connection.
func (p *Pool) Register(dpid topology.DPID, ofs *ofctrl.OFSwitch) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[dpid] = &Switch{dpid: dpid, ofs: ofs}
	p.logger.Info("switch connected", "dpid", dpid)
}

// Unregister drops a DPID's connection on switch disconnect.
func (p *Pool) Unregister(dpid topology.DPID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.conns, dpid)
	p.logger.Info("switch disconnected", "dpid", dpid)
}

// Driver implements openflow.ConnectionPool.
func (p *Pool) Driver(sw topology.DPID) (openflow.SwitchDriver, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.conns[sw]
	return s, ok
}

// dpidFromMAC derives the DPID ofctrl assigns a switch from its
// datapath ID bytes, mirroring the feature-reply parsing every
// OpenFlow controller performs on connect.
func dpidFromMAC(mac net.HardwareAddr) (topology.DPID, error) {
	if len(mac) != 6 {
		return 0, fmt.Errorf("unexpected datapath MAC length %d", len(mac))
	}
	var id uint64
	for _, b := range mac {
		id = (id << 8) | uint64(b)
	}
	return topology.DPID(id), nil
}
