// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes the controller's operational counters and
// gauges via a Prometheus registry, the way the rest of the ambient
// stack is observed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every metric the controller updates as it processes events.
type Registry struct {
	ActiveGroups      prometheus.Gauge
	IncompleteGroups  prometheus.Gauge
	FlowModsSent      *prometheus.CounterVec
	UnreachableEvents prometheus.Counter
	MembershipUpdates prometheus.Counter
}

// NewRegistry creates a Registry and registers every metric on reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		ActiveGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcastctl",
			Name:      "active_groups",
			Help:      "Number of (group, source) pairs currently active.",
		}),
		IncompleteGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcastctl",
			Name:      "incomplete_groups",
			Help:      "Number of (group, source) pairs with a streamer but no known receivers.",
		}),
		FlowModsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcastctl",
			Name:      "flow_mods_sent_total",
			Help:      "Flow-mod messages sent to switches, by command.",
		}, []string{"command"}),
		UnreachableEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcastctl",
			Name:      "unreachable_receivers_total",
			Help:      "Tree computations that excluded at least one unreachable receiver.",
		}),
		MembershipUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcastctl",
			Name:      "membership_updates_total",
			Help:      "IGMP records applied to the membership tracker.",
		}),
	}

	reg.MustRegister(
		r.ActiveGroups,
		r.IncompleteGroups,
		r.FlowModsSent,
		r.UnreachableEvents,
		r.MembershipUpdates,
	)
	return r
}

// The Set/Inc helpers below are nil-receiver safe so every caller can
// hold a *Registry that is nil in tests and scenario replay, where no
// Prometheus registerer exists, without branching at each call site.

// SetActiveGroups records the current number of active (group, source) pairs.
func (r *Registry) SetActiveGroups(n int) {
	if r == nil {
		return
	}
	r.ActiveGroups.Set(float64(n))
}

// SetIncompleteGroups records the current number of incomplete (group, source) pairs.
func (r *Registry) SetIncompleteGroups(n int) {
	if r == nil {
		return
	}
	r.IncompleteGroups.Set(float64(n))
}

// IncFlowModsSent counts one flow-mod sent with the given command ("ADD" or "DELETE").
func (r *Registry) IncFlowModsSent(command string) {
	if r == nil {
		return
	}
	r.FlowModsSent.WithLabelValues(command).Inc()
}

// IncUnreachableEvents counts one tree computation that excluded an unreachable receiver.
func (r *Registry) IncUnreachableEvents() {
	if r == nil {
		return
	}
	r.UnreachableEvents.Inc()
}

// IncMembershipUpdates counts one IGMP record applied to the membership tracker.
func (r *Registry) IncMembershipUpdates() {
	if r == nil {
		return
	}
	r.MembershipUpdates.Inc()
}
