package api

import (
	"fmt"
	"time"

	"github.com/wristcalm/wristcalm/pkg/vitals"
	"github.com/wristcalm/wristcalm/server/internal/breathing"
	"github.com/wristcalm/wristcalm/server/internal/session"
)

// ReadingRequest is the body of POST /api/v1/sessions/{id}/readings and
// POST /api/v1/classify. Every field is required.
type ReadingRequest struct {
	HeartRate   *int `json:"heart_rate"`
	SystolicBP  *int `json:"systolic_bp"`
	DiastolicBP *int `json:"diastolic_bp"`
	BloodSugar  *int `json:"blood_sugar"`
}

// Reading converts the request, reporting the first missing field.
func (req ReadingRequest) Reading() (vitals.Reading, error) {
	fields := []struct {
		name string
		v    *int
	}{
		{"heart_rate", req.HeartRate},
		{"systolic_bp", req.SystolicBP},
		{"diastolic_bp", req.DiastolicBP},
		{"blood_sugar", req.BloodSugar},
	}
	for _, f := range fields {
		if f.v == nil {
			return vitals.Reading{}, fmt.Errorf("%w: %s is required", vitals.ErrInvalidReading, f.name)
		}
	}
	return vitals.Reading{
		HeartRate:   *req.HeartRate,
		SystolicBP:  *req.SystolicBP,
		DiastolicBP: *req.DiastolicBP,
		BloodSugar:  *req.BloodSugar,
	}, nil
}

// SettingsRequest is the body of PUT /api/v1/sessions/{id}/settings.
type SettingsRequest struct {
	VibrationAlerts    *bool `json:"vibration_alerts"`
	GestureSensitivity *int  `json:"gesture_sensitivity"`
}

// apply overlays the fields present in the request onto cur.
func (req SettingsRequest) apply(cur session.Settings) session.Settings {
	if req.VibrationAlerts != nil {
		cur.VibrationAlerts = *req.VibrationAlerts
	}
	if req.GestureSensitivity != nil {
		cur.GestureSensitivity = *req.GestureSensitivity
	}
	return cur
}

// PageRequest is the body of PUT /api/v1/sessions/{id}/page.
type PageRequest struct {
	Page string `json:"page"`
}

// AssessmentResponse is the payload for POST /api/v1/classify and the
// "last" block of a session.
type AssessmentResponse struct {
	Reading     vitals.Reading   `json:"reading"`
	Status      vitals.Status    `json:"status"`
	Triggers    []vitals.Trigger `json:"triggers"`
	Diagnostics []DiagnosticHint `json:"diagnostics"`
	SubmittedAt string           `json:"submitted_at,omitempty"` // RFC3339
}

// HistoryResponse is the payload for GET /api/v1/sessions/{id}/history.
type HistoryResponse struct {
	Values []int `json:"values"` // oldest first, always 5 long
	Latest int   `json:"latest"`
	Min    int   `json:"min"`
	Max    int   `json:"max"`
}

// SessionResponse is the payload for every /api/v1/sessions/{id} route and
// the data of WebSocket session events.
type SessionResponse struct {
	ID        string              `json:"id"`
	Page      session.Page        `json:"page"`
	History   HistoryResponse     `json:"history"`
	Settings  session.Settings    `json:"settings"`
	Last      *AssessmentResponse `json:"last,omitempty"`
	CreatedAt string              `json:"created_at"` // RFC3339
	UpdatedAt string              `json:"updated_at"` // RFC3339
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

// BreathingResponse is the payload for GET /api/v1/breathing.
type BreathingResponse struct {
	Steps   []breathing.Step `json:"steps"`
	TotalMS int64            `json:"total_ms"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// BuildSession maps a session State to its JSON representation.
func BuildSession(s session.State) SessionResponse {
	resp := SessionResponse{
		ID:        s.ID,
		Page:      s.Page,
		History:   buildHistory(s.History),
		Settings:  s.Settings,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if s.Last != nil {
		a := buildAssessment(s.Last.Reading, s.Last.Assessment)
		a.SubmittedAt = s.Last.At.UTC().Format(time.RFC3339)
		resp.Last = &a
	}
	return resp
}

func buildHistory(h vitals.History) HistoryResponse {
	lo, hi := h.Range()
	return HistoryResponse{Values: h.Values(), Latest: h.Latest(), Min: lo, Max: hi}
}

func buildAssessment(r vitals.Reading, a vitals.Assessment) AssessmentResponse {
	return AssessmentResponse{
		Reading:     r,
		Status:      a.Status,
		Triggers:    a.Triggers,
		Diagnostics: computeDiagnostics(r, a),
	}
}
