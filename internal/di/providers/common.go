package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second
)

// Args are the command-line arguments the configuration is loaded from.
type Args []string

// Version is the build version reported by the API.
type Version string
