// Package api implements the JSON REST API of the wristcalm server.
//
// New(opts) returns an http.Handler that serves:
//
//	GET    /api/v1/health                  — liveness and live session count
//	POST   /api/v1/classify                — stateless assessment of one reading
//	GET    /api/v1/breathing               — the breathing exercise script
//	POST   /api/v1/sessions                — start a session (201)
//	GET    /api/v1/sessions/{id}           — session state; 404 if unknown or expired
//	DELETE /api/v1/sessions/{id}           — end a session (204)
//	POST   /api/v1/sessions/{id}/readings  — classify and record a reading
//	GET    /api/v1/sessions/{id}/history   — the five-value heart-rate trend
//	PUT    /api/v1/sessions/{id}/settings  — vibration alerts / gesture sensitivity
//	PUT    /api/v1/sessions/{id}/page      — home | breathing | settings
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for unsupported methods and 404 for unknown routes
//   - Return 400 with {"error": ...} for malformed bodies or out-of-range values
//
// JSON types are defined in types.go; diagnostics.go turns an assessment
// into human-readable hints.
package api
