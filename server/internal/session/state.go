package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/wristcalm/wristcalm/pkg/vitals"
)

var (
	// ErrInvalidSettings is returned when a settings update is out of range.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrInvalidPage is returned when a page name is not recognised.
	ErrInvalidPage = errors.New("invalid page")
)

// Page is the screen the watch is currently showing.
type Page uint8

const (
	PageHome Page = iota
	PageBreathing
	PageSettings
)

// String returns the page name used in URLs and JSON.
func (p Page) String() string {
	switch p {
	case PageHome:
		return "home"
	case PageBreathing:
		return "breathing"
	case PageSettings:
		return "settings"
	default:
		return fmt.Sprintf("Page(%d)", uint8(p))
	}
}

// ParsePage converts a page name into a Page.
func ParsePage(s string) (Page, error) {
	switch s {
	case "home":
		return PageHome, nil
	case "breathing":
		return PageBreathing, nil
	case "settings":
		return PageSettings, nil
	default:
		return PageHome, fmt.Errorf("%w: %q", ErrInvalidPage, s)
	}
}

// MarshalText encodes the page as its name.
func (p Page) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a page name.
func (p *Page) UnmarshalText(b []byte) error {
	v, err := ParsePage(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Gesture sensitivity bounds.
const (
	MinGestureSensitivity     = 1
	MaxGestureSensitivity     = 10
	DefaultGestureSensitivity = 5
)

// Settings are the cosmetic preferences on the settings screen. They have
// no effect on classification.
type Settings struct {
	VibrationAlerts    bool `json:"vibration_alerts"`
	GestureSensitivity int  `json:"gesture_sensitivity"`
}

// DefaultSettings returns vibration alerts on and mid-range sensitivity.
func DefaultSettings() Settings {
	return Settings{VibrationAlerts: true, GestureSensitivity: DefaultGestureSensitivity}
}

// Validate checks GestureSensitivity is within [1, 10].
func (s Settings) Validate() error {
	if s.GestureSensitivity < MinGestureSensitivity || s.GestureSensitivity > MaxGestureSensitivity {
		return fmt.Errorf("%w: gesture_sensitivity %d is out of range [%d, %d]",
			ErrInvalidSettings, s.GestureSensitivity, MinGestureSensitivity, MaxGestureSensitivity)
	}
	return nil
}

// Submission is the outcome of the most recent reading.
type Submission struct {
	Reading    vitals.Reading
	Assessment vitals.Assessment
	At         time.Time
}

// State is everything the watch remembers for one visitor.
type State struct {
	ID        string
	Page      Page
	History   vitals.History
	Settings  Settings
	Last      *Submission
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New returns the initial state: home screen, default history and settings.
func New(id string, now time.Time) State {
	return State{
		ID:        id,
		Page:      PageHome,
		History:   vitals.NewHistory(),
		Settings:  DefaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Submit validates r, classifies it and appends its heart rate to the
// history. On a validation error s is returned unchanged.
func Submit(s State, r vitals.Reading, now time.Time) (State, error) {
	if err := r.Validate(); err != nil {
		return s, err
	}
	s.History = vitals.Append(s.History, r.HeartRate)
	s.Last = &Submission{Reading: r, Assessment: vitals.Assess(r), At: now}
	s.UpdatedAt = now
	return s, nil
}

// Navigate switches the visible page.
func Navigate(s State, p Page, now time.Time) State {
	s.Page = p
	s.UpdatedAt = now
	return s
}

// UpdateSettings replaces the settings after validating them.
func UpdateSettings(s State, set Settings, now time.Time) (State, error) {
	if err := set.Validate(); err != nil {
		return s, err
	}
	s.Settings = set
	s.UpdatedAt = now
	return s, nil
}
