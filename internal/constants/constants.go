// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// File upload constants
const (
	// MaxUploadSize is the maximum multipart form size in bytes (64MB)
	MaxUploadSize = 64 << 20

	// MaxFormMemory is the part of a multipart form kept in memory; the rest spills to disk
	MaxFormMemory = 16 << 20
)

// Server constants
const (
	// RequestTimeout bounds a single API request. Batch submission is exempt.
	RequestTimeout = 5 * time.Minute

	// ShutdownTimeout is the grace period for in-flight requests on shutdown
	ShutdownTimeout = 30 * time.Second
)

// Overlay constants
const (
	// DefaultRenderName is the output file name used when rendering without --out
	DefaultRenderName = "attendance-overlay.png"
)
