// Package promhooks counts cachers.Hooks events with Prometheus.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cachers"
)

// Event label values of cachers_events_total.
const (
	EventStoreReleasedInUse  = "store_released_in_use"
	EventCallbackDropped     = "callback_dropped"
	EventBindRejected        = "bind_rejected"
	EventCompleteRejected    = "complete_rejected"
	EventLoadFailed          = "load_failed"
	EventProviderSetRejected = "provider_set_rejected"
	EventGenSnapshotError    = "gen_snapshot_error"
	EventGenBumpError        = "gen_bump_error"
	EventInvalidateOutage    = "invalidate_outage"
)

type Hooks struct {
	events   *prometheus.CounterVec
	selfHeal *prometheus.CounterVec
}

var _ cachers.Hooks = (*Hooks)(nil)

// New registers the collectors with reg (prometheus.DefaultRegisterer when
// nil).
func New(reg prometheus.Registerer) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &Hooks{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cachers_events_total",
				Help: "Total number of cachers lifecycle and error events",
			},
			[]string{"event"},
		),
		selfHeal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cachers_self_heal_total",
				Help: "Total number of stored entries deleted on read",
			},
			[]string{"reason"}, // "corrupt", "gen_mismatch"
		),
	}
	for _, c := range []prometheus.Collector{h.events, h.selfHeal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) inc(event string) { h.events.WithLabelValues(event).Inc() }

func (h *Hooks) StoreReleasedInUse(string, int64)      { h.inc(EventStoreReleasedInUse) }
func (h *Hooks) CallbackDropped([]byte)                { h.inc(EventCallbackDropped) }
func (h *Hooks) BindRejected([]byte)                   { h.inc(EventBindRejected) }
func (h *Hooks) CompleteRejected([]byte)               { h.inc(EventCompleteRejected) }
func (h *Hooks) LoadFailed([]byte, error)              { h.inc(EventLoadFailed) }
func (h *Hooks) ProviderSetRejected(string)            { h.inc(EventProviderSetRejected) }
func (h *Hooks) GenSnapshotError(string, error)        { h.inc(EventGenSnapshotError) }
func (h *Hooks) GenBumpError(string, error)            { h.inc(EventGenBumpError) }
func (h *Hooks) InvalidateOutage(string, error, error) { h.inc(EventInvalidateOutage) }

func (h *Hooks) SelfHeal(_, reason string) { h.selfHeal.WithLabelValues(reason).Inc() }
