package vitals

import (
	"errors"
	"fmt"
)

// ErrInvalidReading is returned (wrapped) by Reading.Validate when a field is
// outside its accepted range.
var ErrInvalidReading = errors.New("invalid reading")

// Input ranges, inclusive on both ends.
const (
	MinHeartRate   = 40
	MaxHeartRate   = 200
	MinSystolicBP  = 80
	MaxSystolicBP  = 200
	MinDiastolicBP = 40
	MaxDiastolicBP = 120
	MinBloodSugar  = 20
	MaxBloodSugar  = 400
)

// Reading is one user-submitted snapshot of four vital signs.
type Reading struct {
	// HeartRate in beats per minute.
	HeartRate int `json:"heart_rate"`

	// SystolicBP in mmHg.
	SystolicBP int `json:"systolic_bp"`

	// DiastolicBP in mmHg.
	DiastolicBP int `json:"diastolic_bp"`

	// BloodSugar in mg/dL.
	BloodSugar int `json:"blood_sugar"`
}

// DefaultReading returns the values the input form starts with.
func DefaultReading() Reading {
	return Reading{
		HeartRate:   DefaultHeartRate,
		SystolicBP:  120,
		DiastolicBP: 80,
		BloodSugar:  100,
	}
}

// Validate reports the first field that falls outside its range.
// The returned error wraps ErrInvalidReading.
func (r Reading) Validate() error {
	checks := []struct {
		name     string
		v        int
		min, max int
	}{
		{"heart_rate", r.HeartRate, MinHeartRate, MaxHeartRate},
		{"systolic_bp", r.SystolicBP, MinSystolicBP, MaxSystolicBP},
		{"diastolic_bp", r.DiastolicBP, MinDiastolicBP, MaxDiastolicBP},
		{"blood_sugar", r.BloodSugar, MinBloodSugar, MaxBloodSugar},
	}
	for _, c := range checks {
		if c.v < c.min || c.v > c.max {
			return fmt.Errorf("%w: %s %d is out of range [%d, %d]",
				ErrInvalidReading, c.name, c.v, c.min, c.max)
		}
	}
	return nil
}
