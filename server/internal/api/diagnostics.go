package api

import (
	"fmt"

	"github.com/wristcalm/wristcalm/pkg/vitals"
)

// DiagnosticHint is one human-readable insight about a submitted reading.
// The UI shows these as chips under the status banner.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "warning"
	Level string `json:"level"`
	// Title is a short label shown on the chip.
	Title string `json:"title"`
	// Detail is the full explanation shown on hover.
	Detail string `json:"detail"`
	// Value is the reading value that tripped the check, when there is one.
	Value *int `json:"value,omitempty"`
}

// computeDiagnostics explains an assessment in plain words, one hint per
// trigger in rule order, or a single "ok" hint when the reading is calm.
func computeDiagnostics(r vitals.Reading, a vitals.Assessment) []DiagnosticHint {
	if len(a.Triggers) == 0 {
		return []DiagnosticHint{{
			Key:   "all_clear",
			Level: "ok",
			Title: "All readings in range",
			Detail: "Heart rate, blood pressure and blood sugar are all inside " +
				"their calm limits.",
		}}
	}

	hints := make([]DiagnosticHint, 0, len(a.Triggers))
	for _, t := range a.Triggers {
		var v int
		var measured string
		switch t {
		case vitals.TriggerHeartRate:
			v = r.HeartRate
			measured = fmt.Sprintf("Measured %d bpm.", r.HeartRate)
		case vitals.TriggerBloodPressure:
			v = r.SystolicBP
			if r.SystolicBP <= vitals.SystolicHigh {
				v = r.DiastolicBP
			}
			measured = fmt.Sprintf("Measured %d/%d mmHg.", r.SystolicBP, r.DiastolicBP)
		case vitals.TriggerBloodSugar:
			v = r.BloodSugar
			measured = fmt.Sprintf("Measured %d mg/dL.", r.BloodSugar)
		}
		hints = append(hints, DiagnosticHint{
			Key:    t.Key(),
			Level:  "warning",
			Title:  t.Title(),
			Detail: t.Detail() + " " + measured,
			Value:  &v,
		})
	}
	return hints
}
