package vitals

import (
	"encoding/json"
	"testing"
)

// nominal is a reading that trips no check.
func nominal() Reading {
	return Reading{HeartRate: 80, SystolicBP: 120, DiastolicBP: 80, BloodSugar: 100}
}

// --- Classify ---------------------------------------------------------------

func TestClassify_Nominal_Calm(t *testing.T) {
	if got := Classify(nominal()); got != Calm {
		t.Errorf("Classify(nominal) = %v, want Calm", got)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Reading)
		want Status
	}{
		{"heart rate 100", func(r *Reading) { r.HeartRate = 100 }, Calm},
		{"heart rate 101", func(r *Reading) { r.HeartRate = 101 }, Stressed},
		{"systolic 140", func(r *Reading) { r.SystolicBP = 140 }, Calm},
		{"systolic 141", func(r *Reading) { r.SystolicBP = 141 }, Stressed},
		{"diastolic 90", func(r *Reading) { r.DiastolicBP = 90 }, Calm},
		{"diastolic 91", func(r *Reading) { r.DiastolicBP = 91 }, Stressed},
		{"blood sugar 70", func(r *Reading) { r.BloodSugar = 70 }, Calm},
		{"blood sugar 69", func(r *Reading) { r.BloodSugar = 69 }, Stressed},
		{"blood sugar 180", func(r *Reading) { r.BloodSugar = 180 }, Calm},
		{"blood sugar 181", func(r *Reading) { r.BloodSugar = 181 }, Stressed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := nominal()
			tc.mod(&r)
			if got := Classify(r); got != tc.want {
				t.Errorf("Classify(%+v) = %v, want %v", r, got, tc.want)
			}
		})
	}
}

func TestClassify_HighHeartRate_AlwaysStressed(t *testing.T) {
	for hr := HeartRateHigh + 1; hr <= MaxHeartRate; hr++ {
		for _, sys := range []int{MinSystolicBP, 120, 140, MaxSystolicBP} {
			for _, sugar := range []int{MinBloodSugar, 70, 100, 180, MaxBloodSugar} {
				r := Reading{HeartRate: hr, SystolicBP: sys, DiastolicBP: 60, BloodSugar: sugar}
				if got := Classify(r); got != Stressed {
					t.Fatalf("Classify(%+v) = %v, want Stressed", r, got)
				}
			}
		}
	}
}

func TestClassify_InsideAllLimits_AlwaysCalm(t *testing.T) {
	for hr := MinHeartRate; hr <= HeartRateHigh; hr += 5 {
		for sys := MinSystolicBP; sys <= SystolicHigh; sys += 10 {
			for dia := MinDiastolicBP; dia <= DiastolicHigh; dia += 10 {
				for sugar := BloodSugarLow; sugar <= BloodSugarHigh; sugar += 10 {
					r := Reading{HeartRate: hr, SystolicBP: sys, DiastolicBP: dia, BloodSugar: sugar}
					if got := Classify(r); got != Calm {
						t.Fatalf("Classify(%+v) = %v, want Calm", r, got)
					}
				}
			}
		}
	}
}

// --- Assess -----------------------------------------------------------------

func TestAssess_TriggersInRuleOrder(t *testing.T) {
	r := Reading{HeartRate: 150, SystolicBP: 160, DiastolicBP: 100, BloodSugar: 50}
	a := Assess(r)

	if a.Status != Stressed {
		t.Fatalf("Status = %v, want Stressed", a.Status)
	}
	want := []Trigger{TriggerHeartRate, TriggerBloodPressure, TriggerBloodSugar}
	if len(a.Triggers) != len(want) {
		t.Fatalf("Triggers = %v, want %v", a.Triggers, want)
	}
	for i := range want {
		if a.Triggers[i] != want[i] {
			t.Errorf("Triggers[%d] = %v, want %v", i, a.Triggers[i], want[i])
		}
	}
}

func TestAssess_Calm_NoTriggers(t *testing.T) {
	a := Assess(nominal())
	if a.Status != Calm || len(a.Triggers) != 0 {
		t.Errorf("Assess(nominal) = %+v, want Calm with no triggers", a)
	}
}

func TestAssess_JSON(t *testing.T) {
	r := nominal()
	r.DiastolicBP = 95
	b, err := json.Marshal(Assess(r))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"status":"Stressed","triggers":["blood_pressure_high"]}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}

// --- Status -----------------------------------------------------------------

func TestStatus_String(t *testing.T) {
	if Calm.String() != "Calm" || Stressed.String() != "Stressed" {
		t.Errorf("labels: got %q / %q", Calm, Stressed)
	}
}

func TestStatus_UnmarshalText(t *testing.T) {
	var s Status
	if err := s.UnmarshalText([]byte("Stressed")); err != nil || s != Stressed {
		t.Errorf("UnmarshalText(Stressed) = %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("anxious")); err == nil {
		t.Error("UnmarshalText(anxious): expected error, got nil")
	}
}

func TestStatus_MarshalText_Unknown(t *testing.T) {
	if _, err := Status(7).MarshalText(); err == nil {
		t.Error("MarshalText(7): expected error, got nil")
	}
}
