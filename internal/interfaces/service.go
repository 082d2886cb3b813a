package interfaces

// Service is implemented by every transport exposing the daemon to its
// clients.
type Service interface {
	// Start returns once the service is listening.
	Start() error
	Stop()
}
