// Package config loads the server configuration from the `server:` section
// of config.yaml.
//
// Config fields:
//   - HTTPPort            — port for the UI, REST API and WebSocket endpoints (default 8080)
//   - LogLevel            — debug | info | warn | error (default info)
//   - Auth.Mode           — "apikey" or "none"
//   - Auth.KeyEnv         — environment variable holding the expected API key
//   - Auth.Header         — HTTP header name (default "x-api-key")
//   - Session.TTL         — idle lifetime of an in-memory session (default 30m)
//   - Breathing.Cycles    — inhale/exhale pairs in the exercise (default 3)
//   - Breathing.Inhale    — inhale prompt duration (default 4s)
//   - Breathing.Exhale    — exhale prompt duration (default 4s)
//   - WebSocket.PingPeriod — keepalive ping interval (default 54s)
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) hot-reloads the file with fsnotify.
package config
