// Package api serves the demo wizard over HTTP: session creation, brand
// selection, streamed chat with the Cortex agent, and asynchronous
// provisioning of the demo environment.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string
}
