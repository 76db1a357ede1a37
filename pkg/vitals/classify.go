package vitals

import "fmt"

// Thresholds for the stress rule. Every comparison is strict, so a reading
// sitting exactly on a threshold does not trip that check.
const (
	HeartRateHigh  = 100
	SystolicHigh   = 140
	DiastolicHigh  = 90
	BloodSugarHigh = 180
	BloodSugarLow  = 70
)

// Trigger identifies which check of the stress rule fired.
type Trigger uint8

const (
	TriggerHeartRate Trigger = iota + 1
	TriggerBloodPressure
	TriggerBloodSugar
)

// Key returns a stable machine-readable name for the trigger.
func (t Trigger) Key() string {
	switch t {
	case TriggerHeartRate:
		return "heart_rate_high"
	case TriggerBloodPressure:
		return "blood_pressure_high"
	case TriggerBloodSugar:
		return "blood_sugar_extreme"
	default:
		return "unknown"
	}
}

// Title is the short label shown on a hint chip.
func (t Trigger) Title() string {
	switch t {
	case TriggerHeartRate:
		return "Elevated heart rate"
	case TriggerBloodPressure:
		return "High blood pressure"
	case TriggerBloodSugar:
		return "Extreme blood sugar"
	default:
		return "Unknown"
	}
}

// Detail explains the threshold that was crossed.
func (t Trigger) Detail() string {
	switch t {
	case TriggerHeartRate:
		return "Heart rate is above 100 bpm."
	case TriggerBloodPressure:
		return "Blood pressure is above 140/90 mmHg."
	case TriggerBloodSugar:
		return "Blood sugar is above 180 or below 70 mg/dL."
	default:
		return ""
	}
}

// MarshalText encodes the trigger as its Key.
func (t Trigger) MarshalText() ([]byte, error) {
	return []byte(t.Key()), nil
}

// UnmarshalText decodes a trigger Key.
func (t *Trigger) UnmarshalText(b []byte) error {
	for _, c := range []Trigger{TriggerHeartRate, TriggerBloodPressure, TriggerBloodSugar} {
		if c.Key() == string(b) {
			*t = c
			return nil
		}
	}
	return fmt.Errorf("vitals: unknown trigger %q", b)
}

// Assessment is a Status together with the checks that produced it.
type Assessment struct {
	Status   Status    `json:"status"`
	Triggers []Trigger `json:"triggers"`
}

// Assess evaluates every check of the stress rule against r. Triggers are
// listed in rule order; Status is Stressed iff at least one fired.
func Assess(r Reading) Assessment {
	out := Assessment{Status: Calm, Triggers: []Trigger{}}

	if r.HeartRate > HeartRateHigh {
		out.Triggers = append(out.Triggers, TriggerHeartRate)
	}
	if r.SystolicBP > SystolicHigh || r.DiastolicBP > DiastolicHigh {
		out.Triggers = append(out.Triggers, TriggerBloodPressure)
	}
	if r.BloodSugar > BloodSugarHigh || r.BloodSugar < BloodSugarLow {
		out.Triggers = append(out.Triggers, TriggerBloodSugar)
	}

	if len(out.Triggers) > 0 {
		out.Status = Stressed
	}
	return out
}

// Classify maps r to Calm or Stressed.
func Classify(r Reading) Status {
	return Assess(r).Status
}
