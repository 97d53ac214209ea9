package ports

// Frontend is a long-running ingress that feeds texts to the classifier,
// such as the HTTP API or the SMTP content filter. Frontends start
// asynchronously and stop on shutdown.
type Frontend interface {
	// Name identifies the frontend in logs
	Name() string

	// Start starts serving; it returns once the listener is up
	Start() error

	// Stop shuts the frontend down
	Stop() error
}
