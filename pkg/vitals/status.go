package vitals

import "fmt"

// Status is the binary stress label derived from a Reading.
type Status uint8

const (
	Calm Status = iota
	Stressed
)

// String returns the display label, "Calm" or "Stressed".
func (s Status) String() string {
	switch s {
	case Calm:
		return "Calm"
	case Stressed:
		return "Stressed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// MarshalText encodes the status as its label so it reads naturally in JSON.
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case Calm, Stressed:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("vitals: cannot marshal unknown status %d", uint8(s))
	}
}

// UnmarshalText parses "Calm" or "Stressed".
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Calm":
		*s = Calm
	case "Stressed":
		*s = Stressed
	default:
		return fmt.Errorf("vitals: unknown status %q", b)
	}
	return nil
}
