// Package ws implements the WebSocket endpoints of the wristcalm server.
//
// Hub manages clients watching one session each and pushes the session view
// to them whenever the API changes it (Hub.Publish) and on a refresh
// interval. New(store, interval, pingPeriod) creates a Hub; Hub.Run(ctx)
// starts the refresh ticker and closes all connections when ctx is
// cancelled. Hub.ServeHTTP is mounted at /ws/sessions/{id}.
//
// Breather is mounted at /ws/breathing and plays the guided breathing
// exercise over the connection, one message per step, aborting when the
// client disconnects.
//
// Message format sent to clients:
//
//	{"event": "session",  "data": { /* same schema as GET /api/v1/sessions/{id} */ }}
//	{"event": "expired"}
//	{"event": "step",     "data": {"phase": "inhale", "text": "Inhale...", "cycle": 1, "duration_ms": 4000}}
//	{"event": "complete"}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level.
package ws
