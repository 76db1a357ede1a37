// Package ui serves the watch screens as server-rendered HTML.
//
// Routes (registered on a gorilla/mux router by UI.Register):
//
//	GET  /           home: clock, reading form, last result, heart rate trend
//	POST /           submit a reading, then redirect to GET /
//	GET  /breathing  guided breathing driven by the /ws/breathing socket
//	GET  /settings   vibration alerts and gesture sensitivity
//	POST /settings   save settings, then redirect to GET /settings
//
// The visitor's session ID travels in the CookieName cookie. A missing or
// expired session is replaced by a fresh one on the next request. Templates
// are embedded and parsed once in New; each page gets its own clone of the
// layout.
//
// The trend chart is inline SVG laid out by buildChart so no client-side
// charting code is needed.
package ui
