package ui

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wristcalm/wristcalm/pkg/vitals"
	"github.com/wristcalm/wristcalm/server/internal/breathing"
	"github.com/wristcalm/wristcalm/server/internal/metrics"
	"github.com/wristcalm/wristcalm/server/internal/session"
)

// CookieName carries the visitor's session ID.
const CookieName = "wristcalm_session"

// clockLayout renders the watch face time, e.g. "03:04 PM".
const clockLayout = "03:04 PM"

// Publisher is notified after a session changes.
type Publisher interface {
	Publish(id string)
}

// Options wires the UI to its collaborators.
type Options struct {
	Sessions *session.Store
	Metrics  *metrics.Registry

	// Publisher may be nil.
	Publisher Publisher

	// Script returns the current breathing exercise.
	Script func() []breathing.Step

	// Now defaults to time.Now. Only the watch face clock uses it.
	Now func() time.Time
}

// UI serves the watch screens.
type UI struct {
	opts Options
	tmpl *templates
}

// New parses the embedded templates.
func New(opts Options) (*UI, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	t, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &UI{opts: opts, tmpl: t}, nil
}

// Register mounts the screens on r.
func (u *UI) Register(r *mux.Router) {
	r.HandleFunc("/", u.home).Methods(http.MethodGet)
	r.HandleFunc("/", u.submit).Methods(http.MethodPost)
	r.HandleFunc("/breathing", u.breathing).Methods(http.MethodGet)
	r.HandleFunc("/settings", u.settings).Methods(http.MethodGet)
	r.HandleFunc("/settings", u.saveSettings).Methods(http.MethodPost)
}

// --- page data --------------------------------------------------------------

type field struct {
	Name     string
	Label    string
	Min, Max int
	Value    string
}

type hint struct {
	Title  string
	Detail string
}

type result struct {
	Reading  vitals.Reading
	Status   string
	Stressed bool
	Hints    []hint
}

type homeData struct {
	SessionID string
	Clock     string
	Fields    []field
	Error     string
	Result    *result
	Chart     Chart
}

type breathingData struct {
	SessionID string
	Clock     string
	Steps     []breathing.Step
}

type settingsData struct {
	SessionID string
	Clock     string
	Settings  session.Settings
	Min, Max  int
	Error     string
}

// --- handlers ---------------------------------------------------------------

func (u *UI) home(w http.ResponseWriter, r *http.Request) {
	s := u.navigate(w, r, session.PageHome)
	u.renderHome(w, http.StatusOK, s, formFields(vitals.DefaultReading()), "")
}

// submit handles the reading form. Success redirects back to the home
// screen, which shows the stored result; bad input re-renders the form.
func (u *UI) submit(w http.ResponseWriter, r *http.Request) {
	s := u.session(w, r)
	if err := r.ParseForm(); err != nil {
		u.renderHome(w, http.StatusBadRequest, s, formFields(vitals.DefaultReading()), "Could not read the form.")
		return
	}

	fields := formFields(vitals.DefaultReading())
	for i := range fields {
		fields[i].Value = r.PostForm.Get(fields[i].Name)
	}
	reading, err := parseReading(fields)
	if err == nil {
		s, err = u.update(w, s, func(cur session.State, now time.Time) (session.State, error) {
			return session.Submit(cur, reading, now)
		})
	}
	if err != nil {
		if !errors.Is(err, vitals.ErrInvalidReading) {
			u.fail(w, "submit reading", err)
			return
		}
		u.opts.Metrics.ObserveInvalid()
		u.renderHome(w, http.StatusBadRequest, s, fields, err.Error())
		return
	}

	u.opts.Metrics.ObserveAssessment(s.Last.Assessment)
	u.publish(s.ID)
	slog.Debug("ui: reading submitted", "session", s.ID, "status", s.Last.Assessment.Status.String())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (u *UI) breathing(w http.ResponseWriter, r *http.Request) {
	s := u.navigate(w, r, session.PageBreathing)
	u.render(w, http.StatusOK, "breathing", breathingData{
		SessionID: s.ID,
		Clock:     u.clock(),
		Steps:     u.opts.Script(),
	})
}

func (u *UI) settings(w http.ResponseWriter, r *http.Request) {
	s := u.navigate(w, r, session.PageSettings)
	u.renderSettings(w, http.StatusOK, s, "")
}

func (u *UI) saveSettings(w http.ResponseWriter, r *http.Request) {
	s := u.session(w, r)
	if err := r.ParseForm(); err != nil {
		u.renderSettings(w, http.StatusBadRequest, s, "Could not read the form.")
		return
	}

	set := session.Settings{
		// An unchecked checkbox is simply absent from the form.
		VibrationAlerts: r.PostForm.Get("vibration_alerts") != "",
	}
	n, err := strconv.Atoi(r.PostForm.Get("gesture_sensitivity"))
	if err != nil {
		u.renderSettings(w, http.StatusBadRequest, s, "Gesture sensitivity must be a whole number.")
		return
	}
	set.GestureSensitivity = n

	s, err = u.update(w, s, func(cur session.State, now time.Time) (session.State, error) {
		return session.UpdateSettings(cur, set, now)
	})
	if err != nil {
		if !errors.Is(err, session.ErrInvalidSettings) {
			u.fail(w, "update settings", err)
			return
		}
		u.renderSettings(w, http.StatusBadRequest, s, err.Error())
		return
	}
	u.publish(s.ID)
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// --- helpers ----------------------------------------------------------------

// session returns the visitor's session, starting a new one (and setting
// the cookie) when the cookie is missing or its session has expired.
func (u *UI) session(w http.ResponseWriter, r *http.Request) session.State {
	if c, err := r.Cookie(CookieName); err == nil {
		if s, err := u.opts.Sessions.Get(c.Value); err == nil {
			return s
		}
	}
	return u.start(w)
}

// start creates a session and hands its ID to the browser.
func (u *UI) start(w http.ResponseWriter) session.State {
	s := u.opts.Sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(u.opts.Sessions.TTL() / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Debug("ui: session started", "session", s.ID)
	return s
}

// update applies fn to s. When s expired after it was looked up, fn is
// applied to a fresh session instead so the visitor's input is not lost.
func (u *UI) update(w http.ResponseWriter, s session.State, fn func(session.State, time.Time) (session.State, error)) (session.State, error) {
	next, err := u.opts.Sessions.Update(s.ID, fn)
	if !errors.Is(err, session.ErrNotFound) {
		return next, err
	}
	slog.Debug("ui: session expired mid-request", "session", s.ID)
	return u.opts.Sessions.Update(u.start(w).ID, fn)
}

// navigate loads the session and records p as its visible page.
func (u *UI) navigate(w http.ResponseWriter, r *http.Request, p session.Page) session.State {
	s := u.session(w, r)
	if s.Page == p {
		return s
	}
	next, err := u.update(w, s, func(cur session.State, now time.Time) (session.State, error) {
		return session.Navigate(cur, p, now), nil
	})
	if err != nil {
		return session.Navigate(s, p, s.UpdatedAt)
	}
	u.publish(next.ID)
	return next
}

func (u *UI) renderHome(w http.ResponseWriter, code int, s session.State, fields []field, msg string) {
	data := homeData{
		SessionID: s.ID,
		Clock:     u.clock(),
		Fields:    fields,
		Error:     msg,
		Chart:     buildChart(s.History),
	}
	if s.Last != nil {
		data.Result = buildResult(s.Last)
	}
	u.render(w, code, "home", data)
}

func (u *UI) renderSettings(w http.ResponseWriter, code int, s session.State, msg string) {
	u.render(w, code, "settings", settingsData{
		SessionID: s.ID,
		Clock:     u.clock(),
		Settings:  s.Settings,
		Min:       session.MinGestureSensitivity,
		Max:       session.MaxGestureSensitivity,
		Error:     msg,
	})
}

// render buffers the page so a template error never leaves a half-written
// response behind.
func (u *UI) render(w http.ResponseWriter, code int, page string, data interface{}) {
	var buf bytes.Buffer
	if err := u.tmpl.render(&buf, page, data); err != nil {
		u.fail(w, "render "+page, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	buf.WriteTo(w) //nolint:errcheck
}

func (u *UI) fail(w http.ResponseWriter, op string, err error) {
	slog.Error("ui: "+op, "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (u *UI) publish(id string) {
	if u.opts.Publisher != nil {
		u.opts.Publisher.Publish(id)
	}
}

func (u *UI) clock() string {
	return u.opts.Now().Format(clockLayout)
}

// formFields lists the reading inputs with their ranges, pre-filled from r.
func formFields(r vitals.Reading) []field {
	return []field{
		{"heart_rate", "Heart Rate (bpm)", vitals.MinHeartRate, vitals.MaxHeartRate, strconv.Itoa(r.HeartRate)},
		{"systolic_bp", "Systolic BP (mmHg)", vitals.MinSystolicBP, vitals.MaxSystolicBP, strconv.Itoa(r.SystolicBP)},
		{"diastolic_bp", "Diastolic BP (mmHg)", vitals.MinDiastolicBP, vitals.MaxDiastolicBP, strconv.Itoa(r.DiastolicBP)},
		{"blood_sugar", "Blood Sugar (mg/dL)", vitals.MinBloodSugar, vitals.MaxBloodSugar, strconv.Itoa(r.BloodSugar)},
	}
}

// parseReading converts the submitted form values; fields must be in the
// order formFields returns them.
func parseReading(fields []field) (vitals.Reading, error) {
	var vals [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f.Value)
		if err != nil {
			return vitals.Reading{}, fmt.Errorf("%w: %s must be a whole number", vitals.ErrInvalidReading, f.Label)
		}
		vals[i] = n
	}
	return vitals.Reading{
		HeartRate:   vals[0],
		SystolicBP:  vals[1],
		DiastolicBP: vals[2],
		BloodSugar:  vals[3],
	}, nil
}

func buildResult(sub *session.Submission) *result {
	res := &result{
		Reading:  sub.Reading,
		Status:   sub.Assessment.Status.String(),
		Stressed: sub.Assessment.Status == vitals.Stressed,
	}
	for _, t := range sub.Assessment.Triggers {
		res.Hints = append(res.Hints, hint{Title: t.Title(), Detail: t.Detail()})
	}
	return res
}
