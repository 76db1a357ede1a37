// Package auth provides authentication middleware for the wristcalm server.
//
// APIKey(mode, header, key) returns middleware that validates the API key
// sent in the named HTTP header. It guards the /api/ routes; the web UI and
// /metrics are left open.
//
// When mode != "apikey" or key == "", all requests pass through (useful for
// local development with auth disabled). When the key is incorrect or
// absent, the middleware answers 401 immediately.
package auth
