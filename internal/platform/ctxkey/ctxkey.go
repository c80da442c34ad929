// Copyright (c) 2026 Wearmint. All rights reserved.

// Package ctxkey defines typed context keys shared between middleware and
// handlers. Using a private named type prevents collisions with keys defined
// in other packages.
package ctxkey

// Key is the private type used for context values set by this module.
type Key string

const (
	// KeyRequestID carries the per-request correlation id.
	KeyRequestID Key = "request_id"

	// KeyUser carries the authenticated user's claims.
	KeyUser Key = "user_claims"

	// KeyLogger carries the request-scoped structured logger.
	KeyLogger Key = "logger"
)
