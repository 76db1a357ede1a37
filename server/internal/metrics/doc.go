// Package metrics keeps the server's counters and serves them in the
// Prometheus exposition format at /metrics.
//
// Counters are built directly as client_model MetricFamily values and
// encoded with prometheus/common/expfmt, so the wire format matches what
// any Prometheus scraper expects:
//
//	wristcalm_readings_total{status}           counter
//	wristcalm_reading_triggers_total{trigger}  counter
//	wristcalm_invalid_readings_total           counter
//	wristcalm_breathing_sessions_total{outcome} counter
//	wristcalm_sessions_active                  gauge
//	wristcalm_websocket_clients                gauge
//
// Gauges are sampled on every scrape from functions registered with
// Registry.Gauge.
package metrics
