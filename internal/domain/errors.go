// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrMissingTenant indicates an operation required a tenant scope but none
// was set on the context. This is a caller bug, not a runtime condition.
var ErrMissingTenant = errors.New("missing tenant context")

// ErrBrokerUnavailable indicates the pub/sub broker could not be reached.
// Callers must degrade real-time features rather than fail the process.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// ErrInvalidToken indicates the presented credential failed validation.
var ErrInvalidToken = errors.New("invalid token")
