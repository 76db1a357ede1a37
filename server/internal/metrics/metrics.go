package metrics

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/wristcalm/wristcalm/pkg/vitals"
)

const namespace = "wristcalm_"

// Breathing exercise outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
)

// Registry holds every counter and gauge the server exports.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	readings  map[string]float64 // by status label
	triggers  map[string]float64 // by trigger key
	invalid   float64
	breathing map[string]float64 // by outcome
	gauges    map[string]gauge
}

type gauge struct {
	help string
	fn   func() float64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		readings:  map[string]float64{vitals.Calm.String(): 0, vitals.Stressed.String(): 0},
		triggers:  make(map[string]float64),
		breathing: map[string]float64{OutcomeCompleted: 0, OutcomeAborted: 0},
		gauges:    make(map[string]gauge),
	}
}

// ObserveAssessment counts one classified reading and each trigger it tripped.
func (r *Registry) ObserveAssessment(a vitals.Assessment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings[a.Status.String()]++
	for _, t := range a.Triggers {
		r.triggers[t.Key()]++
	}
}

// ObserveInvalid counts one reading rejected by validation.
func (r *Registry) ObserveInvalid() {
	r.mu.Lock()
	r.invalid++
	r.mu.Unlock()
}

// ObserveBreathing counts one finished breathing exercise.
func (r *Registry) ObserveBreathing(outcome string) {
	r.mu.Lock()
	r.breathing[outcome]++
	r.mu.Unlock()
}

// Gauge registers fn to be sampled as the gauge name on every scrape.
// name is given without the namespace prefix.
func (r *Registry) Gauge(name, help string, fn func() float64) {
	r.mu.Lock()
	r.gauges[namespace+name] = gauge{help: help, fn: fn}
	r.mu.Unlock()
}

// Families returns a point-in-time copy of every metric, sorted by name.
func (r *Registry) Families() []*dto.MetricFamily {
	r.mu.Lock()
	out := []*dto.MetricFamily{
		labelledCounter(namespace+"readings_total", "Classified readings by stress status.", "status", r.readings),
		labelledCounter(namespace+"reading_triggers_total", "Stress rule checks that fired, by check.", "trigger", r.triggers),
		counter(namespace+"invalid_readings_total", "Readings rejected because a field was out of range.", r.invalid),
		labelledCounter(namespace+"breathing_sessions_total", "Breathing exercises by outcome.", "outcome", r.breathing),
	}
	gauges := make(map[string]gauge, len(r.gauges))
	for k, v := range r.gauges {
		gauges[k] = v
	}
	r.mu.Unlock()

	// Gauge callbacks may take other locks; sample them outside r.mu.
	for name, g := range gauges {
		out = append(out, &dto.MetricFamily{
			Name:   proto.String(name),
			Help:   proto.String(g.help),
			Type:   dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(g.fn())}}},
		})
	}

	// Families without samples cannot be encoded.
	kept := out[:0]
	for _, mf := range out {
		if len(mf.Metric) > 0 {
			kept = append(kept, mf)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].GetName() < kept[j].GetName() })
	return kept
}

// ServeHTTP writes the exposition in the format negotiated from the Accept
// header (text by default).
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	format := expfmt.Negotiate(req.Header)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range r.Families() {
		if err := enc.Encode(mf); err != nil {
			slog.Warn("metrics: encode failed", "metric", mf.GetName(), "err", err)
			return
		}
	}
	if c, ok := enc.(expfmt.Closer); ok {
		c.Close() //nolint:errcheck
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}},
	}
}

func labelledCounter(name, help, label string, values map[string]float64) *dto.MetricFamily {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mf := &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, k := range keys {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String(label), Value: proto.String(k)}},
			Counter: &dto.Counter{Value: proto.Float64(values[k])},
		})
	}
	return mf
}
