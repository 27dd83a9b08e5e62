// Package api provides the HTTP API server for ingesting agent traces and
// answering line attribution queries.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// AuthSecret signs and verifies the bearer tokens protecting the
	// /api/v1 routes
	AuthSecret string
}
