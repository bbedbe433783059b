// Package id generates identifiers for screen sessions, SSE clients and view-model instances.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used across the app.
const (
	PrefixScreen = "scr"
	PrefixClient = "cli"
)

// Generate creates a prefixed NanoID, e.g. "scr-V1StGXR8_Z5jdHi6B-myT".
// Session ids travel in URLs, so the URL-safe alphabet matters.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Instance returns a random UUID used to correlate the log lines of one
// view-model instance.
func Instance() string {
	return uuid.NewString()
}
