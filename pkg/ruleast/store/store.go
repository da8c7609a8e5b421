// Package store persists compiled rules under generated identifiers.
package store

import (
	"context"
	"errors"
	"time"
)

// Store persists serialized rules by ID.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores data under id, overwriting any previous value.
	Save(ctx context.Context, id string, data []byte) error

	// Load retrieves the data stored under id.
	// Returns ErrNotFound if nothing is stored under id.
	Load(ctx context.Context, id string) ([]byte, error)

	// List returns metadata for every stored rule, oldest first.
	// Returns an empty slice (not error) when the store is empty.
	List(ctx context.Context) ([]Info, error)

	// Delete removes the rule stored under id.
	// Returns nil if nothing is stored under id.
	Delete(ctx context.Context, id string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading the rule.
type Info struct {
	ID        string    `json:"rule_id"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size_bytes"`
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates no rule is stored under the requested ID.
	ErrNotFound = errors.New("rule not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("rule store closed")

	// ErrUnavailable indicates the backing service could not be reached.
	ErrUnavailable = errors.New("rule store unavailable")

	// ErrEmptyID indicates an operation was attempted with an empty ID.
	ErrEmptyID = errors.New("rule id is required")

	// ErrCorruptRule indicates stored bytes could not be decoded as a rule.
	ErrCorruptRule = errors.New("stored rule is corrupt")
)
