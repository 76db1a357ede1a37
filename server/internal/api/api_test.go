package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/wristcalm/wristcalm/server/internal/api"
	"github.com/wristcalm/wristcalm/server/internal/breathing"
	"github.com/wristcalm/wristcalm/server/internal/metrics"
	"github.com/wristcalm/wristcalm/server/internal/session"
)

// --- test helpers -----------------------------------------------------------

// recordingPublisher remembers every published session ID.
type recordingPublisher struct {
	mu  sync.Mutex
	ids []string
}

func (p *recordingPublisher) Publish(id string) {
	p.mu.Lock()
	p.ids = append(p.ids, id)
	p.mu.Unlock()
}

type fixture struct {
	h        http.Handler
	sessions *session.Store
	metrics  *metrics.Registry
	pub      *recordingPublisher
}

func newFixture() *fixture {
	f := &fixture{
		sessions: session.NewStore(5 * time.Minute),
		metrics:  metrics.New(),
		pub:      &recordingPublisher{},
	}
	f.h = api.New(api.Options{
		Sessions:  f.sessions,
		Metrics:   f.metrics,
		Publisher: f.pub,
		Script: func() []breathing.Step {
			return breathing.Script(3, 4*time.Second, 4*time.Second)
		},
	})
	return f
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, buf))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// createSession POSTs /api/v1/sessions and returns the new ID.
func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/v1/sessions", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("create session: status %d", rr.Code)
	}
	var resp api.SessionResponse
	decode(t, rr, &resp)
	return resp.ID
}

func readingBody(hr, sys, dia, sugar int) string {
	b, _ := json.Marshal(map[string]int{
		"heart_rate": hr, "systolic_bp": sys, "diastolic_bp": dia, "blood_sugar": sugar,
	})
	return string(b)
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth(t *testing.T) {
	f := newFixture()
	createSession(t, f.h)

	rr := do(t, f.h, http.MethodGet, "/api/v1/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" || resp.ActiveSessions != 1 {
		t.Errorf("health: got %+v", resp)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture()
	id := createSession(t, f.h)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/health"},
		{http.MethodGet, "/api/v1/classify"},
		{http.MethodPut, "/api/v1/sessions/" + id + "/readings"},
		{http.MethodPost, "/api/v1/sessions/" + id + "/page"},
		{http.MethodPatch, "/api/v1/sessions/" + id},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := do(t, f.h, tc.method, tc.path, "")
			if rr.Code != http.StatusMethodNotAllowed {
				t.Fatalf("status: got %d, want 405 (%s)", rr.Code, rr.Body.String())
			}
			var resp map[string]string
			decode(t, rr, &resp)
			if resp["error"] != "method not allowed" {
				t.Errorf("error: got %q, want method not allowed", resp["error"])
			}
		})
	}
}

func TestUnknownRoute_404(t *testing.T) {
	f := newFixture()
	if rr := do(t, f.h, http.MethodGet, "/api/v1/pipelines", ""); rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

// --- /api/v1/classify -------------------------------------------------------

func TestClassify_Calm(t *testing.T) {
	f := newFixture()
	rr := do(t, f.h, http.MethodPost, "/api/v1/classify", readingBody(80, 120, 80, 100))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["status"] != "Calm" {
		t.Errorf("status: got %v, want Calm", resp["status"])
	}
	diags := resp["diagnostics"].([]interface{})
	if len(diags) != 1 || diags[0].(map[string]interface{})["key"] != "all_clear" {
		t.Errorf("diagnostics: got %v", diags)
	}
}

func TestClassify_Stressed_ListsTriggers(t *testing.T) {
	f := newFixture()
	rr := do(t, f.h, http.MethodPost, "/api/v1/classify", readingBody(101, 120, 80, 181))
	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["status"] != "Stressed" {
		t.Errorf("status: got %v, want Stressed", resp["status"])
	}
	trig := resp["triggers"].([]interface{})
	if len(trig) != 2 || trig[0] != "heart_rate_high" || trig[1] != "blood_sugar_extreme" {
		t.Errorf("triggers: got %v", trig)
	}
	diags := resp["diagnostics"].([]interface{})
	if v := diags[1].(map[string]interface{})["value"]; v.(float64) != 181 {
		t.Errorf("blood sugar hint value: got %v, want 181", v)
	}
}

func TestClassify_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"heart_rate": `},
		{"missing field", `{"heart_rate": 80, "systolic_bp": 120, "diastolic_bp": 80}`},
		{"unknown field", `{"heart_rate": 80, "systolic_bp": 120, "diastolic_bp": 80, "blood_sugar": 100, "mood": 1}`},
		{"out of range", readingBody(250, 120, 80, 100)},
		{"non integer", `{"heart_rate": 80.5, "systolic_bp": 120, "diastolic_bp": 80, "blood_sugar": 100}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			rr := do(t, f.h, http.MethodPost, "/api/v1/classify", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rr.Code)
			}
			var resp map[string]string
			decode(t, rr, &resp)
			if resp["error"] == "" {
				t.Error("error message: missing")
			}
		})
	}
}

// --- /api/v1/sessions -------------------------------------------------------

func TestCreateSession_Defaults(t *testing.T) {
	f := newFixture()
	rr := do(t, f.h, http.MethodPost, "/api/v1/sessions", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", rr.Code)
	}
	var resp api.SessionResponse
	decode(t, rr, &resp)

	if rr.Header().Get("Location") != "/api/v1/sessions/"+resp.ID {
		t.Errorf("Location: got %q", rr.Header().Get("Location"))
	}
	if resp.Page != session.PageHome {
		t.Errorf("page: got %v, want home", resp.Page)
	}
	want := []int{80, 80, 80, 80, 80}
	for i, v := range resp.History.Values {
		if v != want[i] {
			t.Errorf("history[%d]: got %d, want 80", i, v)
		}
	}
	if !resp.Settings.VibrationAlerts || resp.Settings.GestureSensitivity != 5 {
		t.Errorf("settings: got %+v", resp.Settings)
	}
	if resp.Last != nil {
		t.Error("last: expected none before any reading")
	}
}

func TestGetSession_NotFound(t *testing.T) {
	f := newFixture()
	if rr := do(t, f.h, http.MethodGet, "/api/v1/sessions/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	f := newFixture()
	id := createSession(t, f.h)

	if rr := do(t, f.h, http.MethodDelete, "/api/v1/sessions/"+id, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d, want 204", rr.Code)
	}
	if rr := do(t, f.h, http.MethodGet, "/api/v1/sessions/"+id, ""); rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", rr.Code)
	}
}

func TestSubmitReading_UpdatesHistoryAndPublishes(t *testing.T) {
	f := newFixture()
	id := createSession(t, f.h)

	for i := 0; i < 5; i++ {
		do(t, f.h, http.MethodPost, "/api/v1/sessions/"+id+"/readings", readingBody(80, 120, 80, 100))
	}
	rr := do(t, f.h, http.MethodPost, "/api/v1/sessions/"+id+"/readings", readingBody(95, 150, 80, 100))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	var resp api.SessionResponse
	decode(t, rr, &resp)

	want := []int{80, 80, 80, 80, 95}
	for i, v := range resp.History.Values {
		if v != want[i] {
			t.Errorf("history: got %v, want %v", resp.History.Values, want)
			break
		}
	}
	if resp.Last == nil || resp.Last.Status.String() != "Stressed" {
		t.Fatalf("last: got %+v, want Stressed", resp.Last)
	}
	if resp.Last.SubmittedAt == "" {
		t.Error("submitted_at: missing")
	}

	f.pub.mu.Lock()
	n := len(f.pub.ids)
	f.pub.mu.Unlock()
	if n != 6 {
		t.Errorf("publishes: got %d, want 6", n)
	}
}

func TestSubmitReading_Invalid_LeavesHistory(t *testing.T) {
	f := newFixture()
	id := createSession(t, f.h)

	rr := do(t, f.h, http.MethodPost, "/api/v1/sessions/"+id+"/readings", readingBody(80, 120, 80, 500))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}

	rr = do(t, f.h, http.MethodGet, "/api/v1/sessions/"+id+"/history", "")
	var hist api.HistoryResponse
	decode(t, rr, &hist)
	if hist.Latest != 80 || hist.Min != 80 || hist.Max != 80 {
		t.Errorf("history changed after invalid reading: %+v", hist)
	}
}

func TestSubmitReading_UnknownSession(t *testing.T) {
	f := newFixture()
	rr := do(t, f.h, http.MethodPost, "/api/v1/sessions/nope/readings", readingBody(80, 120, 80, 100))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestHistory(t *testing.T) {
	f := newFixture()
	id := createSession(t, f.h)
	do(t, f.h, http.MethodPost, "/api/v1/sessions/"+id+"/readings", readingBody(130, 120, 80, 100))
	do(t, f.h, http.MethodPost, "/api/v1/sessions/"+id+"/readings", readingBody(60, 120, 80, 100))

	rr := do(t, f.h, http.MethodGet, "/api/v1/sessions/"+id+"/history", "")
	var hist api.HistoryResponse
	decode(t, rr, &hist)

	if len(hist.Values) != 5 {
		t.Fatalf("values: got %d, want 5", len(hist.Values))
	}
	if hist.Latest != 60 || hist.Min != 60 || hist.Max != 130 {
		t.Errorf("history: got %+v", hist)
	}
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture()
	id := createSession(t, f.h)

	rr := do(t, f.h, http.MethodPut, "/api/v1/sessions/"+id+"/settings", `{"gesture_sensitivity": 8}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	var resp api.SessionResponse
	decode(t, rr, &resp)
	if resp.Settings.GestureSensitivity != 8 || !resp.Settings.VibrationAlerts {
		t.Errorf("settings: got %+v, want sensitivity 8 with alerts kept on", resp.Settings)
	}

	rr = do(t, f.h, http.MethodPut, "/api/v1/sessions/"+id+"/settings", `{"gesture_sensitivity": 11}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("out of range sensitivity: got %d, want 400", rr.Code)
	}
}

func TestNavigate(t *testing.T) {
	f := newFixture()
	id := createSession(t, f.h)

	rr := do(t, f.h, http.MethodPut, "/api/v1/sessions/"+id+"/page", `{"page": "breathing"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["page"] != "breathing" {
		t.Errorf("page: got %v, want breathing", resp["page"])
	}

	if rr := do(t, f.h, http.MethodPut, "/api/v1/sessions/"+id+"/page", `{"page": "games"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown page: got %d, want 400", rr.Code)
	}
}

// --- /api/v1/breathing ------------------------------------------------------

func TestBreathing(t *testing.T) {
	f := newFixture()
	rr := do(t, f.h, http.MethodGet, "/api/v1/breathing", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)

	steps := resp["steps"].([]interface{})
	if len(steps) != 7 {
		t.Errorf("steps: got %d, want 7", len(steps))
	}
	if resp["total_ms"].(float64) != 24000 {
		t.Errorf("total_ms: got %v, want 24000", resp["total_ms"])
	}
	last := steps[len(steps)-1].(map[string]interface{})
	if last["text"] != "Breathing Complete!" {
		t.Errorf("last step: got %v", last["text"])
	}
}
