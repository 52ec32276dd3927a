package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Delivery kinds used as the "kind" label of recording_deliveries_total.
const (
	KindFull          = "full"
	KindPartial       = "partial"
	KindUnsatisfiable = "unsatisfiable"
)

// Metrics holds the recording-level collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	deliveries       *prometheus.CounterVec
	bytesServed      prometheus.Counter
	abortedTransfers prometheus.Counter
	ingests          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recording_deliveries_total",
				Help: "Recording delivery decisions by kind (full, partial, unsatisfiable).",
			},
			[]string{"kind"},
		),
		bytesServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recording_bytes_served_total",
			Help: "Bytes of recording content fully delivered to clients.",
		}),
		abortedTransfers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recording_transfers_aborted_total",
			Help: "Recording transfers that ended before the promised length was sent.",
		}),
		ingests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recording_ingests_total",
				Help: "Upload attempts by outcome.",
			},
			[]string{"status"},
		),
	}

	for _, c := range []prometheus.Collector{m.deliveries, m.bytesServed, m.abortedTransfers, m.ingests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Delivery(kind string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(kind).Inc()
}

func (m *Metrics) BytesServed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesServed.Add(float64(n))
}

func (m *Metrics) TransferAborted() {
	if m == nil {
		return
	}
	m.abortedTransfers.Inc()
}

// Ingest counts an upload attempt; status is "ok", "storage_error" or "catalog_error".
func (m *Metrics) Ingest(status string) {
	if m == nil {
		return
	}
	m.ingests.WithLabelValues(status).Inc()
}
