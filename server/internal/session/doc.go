// Package session holds the per-visitor watch state and the in-memory store
// that keeps it between requests.
//
// State is a plain value. The transitions Submit, Navigate and UpdateSettings
// take a State and return the next one; they never touch shared memory, so
// the classification and history logic stays independent of HTTP.
//
// Store keeps States keyed by a random UUID. Entries idle for longer than the
// TTL are removed by the background loop started with Run. Nothing is
// persisted; a restart forgets every session.
package session
