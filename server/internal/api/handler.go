package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wristcalm/wristcalm/pkg/vitals"
	"github.com/wristcalm/wristcalm/server/internal/breathing"
	"github.com/wristcalm/wristcalm/server/internal/metrics"
	"github.com/wristcalm/wristcalm/server/internal/session"
)

// maxBodyBytes caps request bodies; every payload here is a handful of ints.
const maxBodyBytes = 4 << 10

// Publisher is notified after a session changes so live clients can refresh.
type Publisher interface {
	Publish(id string)
}

// Options wires the handler to its collaborators.
type Options struct {
	Sessions *session.Store
	Metrics  *metrics.Registry

	// Publisher may be nil.
	Publisher Publisher

	// Script returns the current breathing exercise. It is a function so
	// config reloads take effect without rebuilding the handler.
	Script func() []breathing.Step
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	opts   Options
	router *mux.Router
}

// New creates a Handler and registers all routes.
func New(opts Options) http.Handler {
	h := &Handler{opts: opts, router: mux.NewRouter()}

	// Routes sit on the root router so a method mismatch reaches
	// MethodNotAllowedHandler instead of falling through to NotFoundHandler.
	r := h.router
	r.HandleFunc("/api/v1/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/classify", h.classify).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/breathing", h.breathing).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/sessions", h.createSession).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/sessions/{id}", h.getSession).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/sessions/{id}", h.deleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/sessions/{id}/readings", h.submitReading).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/sessions/{id}/history", h.history).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/sessions/{id}/settings", h.updateSettings).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/sessions/{id}/page", h.navigate).Methods(http.MethodPut)

	h.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	h.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — liveness and live session count.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		ActiveSessions: len(h.opts.Sessions.List()),
	})
}

// classify returns POST /api/v1/classify — a stateless assessment of one
// reading. No session is touched.
func (h *Handler) classify(w http.ResponseWriter, r *http.Request) {
	reading, ok := h.decodeReading(w, r)
	if !ok {
		return
	}
	a := vitals.Assess(reading)
	h.opts.Metrics.ObserveAssessment(a)
	jsonResp(w, http.StatusOK, buildAssessment(reading, a))
}

// breathing returns GET /api/v1/breathing — the current exercise script.
func (h *Handler) breathing(w http.ResponseWriter, r *http.Request) {
	steps := h.opts.Script()
	jsonResp(w, http.StatusOK, BreathingResponse{
		Steps:   steps,
		TotalMS: breathing.TotalDuration(steps).Milliseconds(),
	})
}

// createSession returns POST /api/v1/sessions — a fresh session.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	s := h.opts.Sessions.Create()
	w.Header().Set("Location", "/api/v1/sessions/"+s.ID)
	jsonResp(w, http.StatusCreated, BuildSession(s))
}

// getSession returns GET /api/v1/sessions/{id}.
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.opts.Sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	jsonResp(w, http.StatusOK, BuildSession(s))
}

// deleteSession handles DELETE /api/v1/sessions/{id}.
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.opts.Sessions.Delete(mux.Vars(r)["id"]); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitReading handles POST /api/v1/sessions/{id}/readings: classify the
// reading and push its heart rate onto the session history.
func (h *Handler) submitReading(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.opts.Sessions.Get(id); err != nil {
		writeErr(w, err)
		return
	}
	reading, ok := h.decodeReading(w, r)
	if !ok {
		return
	}

	s, err := h.opts.Sessions.Update(id, func(cur session.State, now time.Time) (session.State, error) {
		return session.Submit(cur, reading, now)
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	h.opts.Metrics.ObserveAssessment(s.Last.Assessment)
	h.publish(id)
	jsonResp(w, http.StatusOK, BuildSession(s))
}

// history returns GET /api/v1/sessions/{id}/history.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	s, err := h.opts.Sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	jsonResp(w, http.StatusOK, buildHistory(s.History))
}

// updateSettings handles PUT /api/v1/sessions/{id}/settings. Absent fields
// keep their current value.
func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req SettingsRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.opts.Sessions.Update(id, func(cur session.State, now time.Time) (session.State, error) {
		return session.UpdateSettings(cur, req.apply(cur.Settings), now)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	h.publish(id)
	jsonResp(w, http.StatusOK, BuildSession(s))
}

// navigate handles PUT /api/v1/sessions/{id}/page.
func (h *Handler) navigate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req PageRequest
	if !decode(w, r, &req) {
		return
	}
	page, err := session.ParsePage(req.Page)
	if err != nil {
		writeErr(w, err)
		return
	}
	s, err := h.opts.Sessions.Update(id, func(cur session.State, now time.Time) (session.State, error) {
		return session.Navigate(cur, page, now), nil
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	h.publish(id)
	jsonResp(w, http.StatusOK, BuildSession(s))
}

// --- helpers ----------------------------------------------------------------

func (h *Handler) publish(id string) {
	if h.opts.Publisher != nil {
		h.opts.Publisher.Publish(id)
	}
}

// decodeReading parses a ReadingRequest and validates its ranges. It writes
// the error response itself and reports whether the caller may continue.
func (h *Handler) decodeReading(w http.ResponseWriter, r *http.Request) (vitals.Reading, bool) {
	var req ReadingRequest
	if !decode(w, r, &req) {
		return vitals.Reading{}, false
	}
	reading, err := req.Reading()
	if err == nil {
		err = reading.Validate()
	}
	if err != nil {
		h.opts.Metrics.ObserveInvalid()
		writeErr(w, err)
		return vitals.Reading{}, false
	}
	return reading, true
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeErr maps domain errors onto HTTP status codes.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		jsonErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, vitals.ErrInvalidReading),
		errors.Is(err, session.ErrInvalidSettings),
		errors.Is(err, session.ErrInvalidPage):
		jsonErr(w, http.StatusBadRequest, err.Error())
	default:
		jsonErr(w, http.StatusInternalServerError, "internal error")
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
