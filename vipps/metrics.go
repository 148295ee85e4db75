package vipps

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts extraction and userinfo outcomes. A nil *Metrics records nothing.
type Metrics struct {
	extractions *prometheus.CounterVec
	addresses   *prometheus.CounterVec
	userinfo    *prometheus.CounterVec
}

// NewMetrics registers the kit's counters with reg. A nil reg creates
// unregistered collectors, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		extractions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vipps",
				Name:      "profile_extractions_total",
				Help:      "Profile extractions by result (ok, untrusted, bad_subject)",
			},
			[]string{"result"},
		),
		addresses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vipps",
				Name:      "addresses_dropped_total",
				Help:      "Address claim occurrences dropped by reason",
			},
			[]string{"reason"}, // malformed_json, missing_type
		),
		userinfo: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vipps",
				Name:      "userinfo_requests_total",
				Help:      "Userinfo fetches by result (ok, protocol_error, error)",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) extraction(result string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(result).Inc()
}

func (m *Metrics) droppedAddress(reason string) {
	if m == nil {
		return
	}
	m.addresses.WithLabelValues(reason).Inc()
}

func (m *Metrics) userInfo(result string) {
	if m == nil {
		return
	}
	m.userinfo.WithLabelValues(result).Inc()
}
