// Package timeouts defines shared timeout constants used across the
// marketplace binaries so HTTP and AI boundaries stay consistent.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// AIRequest caps a single call to the generative AI provider. The provider
// itself enforces no deadline.
const AIRequest = 60 * time.Second

// Autofill caps the whole analyze, price and describe sequence.
const Autofill = 2 * time.Minute

// Notification caps delivery of one sale notification.
const Notification = 10 * time.Second
