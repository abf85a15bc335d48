// Package store persists validated records, one document per item.
//
// The filesystem backend is the default; an S3 backend is available for
// shared output locations. Both uphold the same invariant: a record
// visible at its final key is always a complete, previously validated
// document. The fs backend guarantees this with a same-directory temp
// file and atomic rename.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dexfetch/dexfetch/types"
)

// Sentinel errors for storage failure classification.
var (
	// ErrNoRecord indicates no record exists for the item.
	ErrNoRecord = errors.New("no record for item")
	// ErrCommitFailed indicates the record could not be durably committed.
	ErrCommitFailed = errors.New("record commit failed")
)

// Store persists validated record documents keyed by item.
type Store interface {
	// ReadRecord returns the raw document for an item.
	// Returns an error wrapping ErrNoRecord when absent.
	ReadRecord(ctx context.Context, item types.Item) ([]byte, error)

	// CommitRecord durably writes a validated document for an item.
	// Implementations must never leave a partially written document
	// visible at the final key.
	CommitRecord(ctx context.Context, item types.Item, data []byte) error

	// Remove deletes the document for an item. Removing an absent
	// document is not an error.
	Remove(ctx context.Context, item types.Item) error

	// List returns the items that currently have documents, sorted.
	List(ctx context.Context) ([]types.Item, error)

	// Close releases backend resources.
	Close() error
}

// StorageError wraps an underlying error with the failing operation and
// key, preserving the chain for errors.Is/As.
type StorageError struct {
	Op   string
	Key  string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Kind)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error { return e.Err }

// Is reports whether the error matches the target sentinel.
func (e *StorageError) Is(target error) bool { return errors.Is(e.Kind, target) }

// ReadValid reads and validates the stored document for an item.
// Used by the batch runners to decide whether an item can be skipped:
// present and valid means no network call is needed.
func ReadValid(ctx context.Context, st Store, item types.Item) (*types.Record, error) {
	data, err := st.ReadRecord(ctx, item)
	if err != nil {
		return nil, err
	}
	rec, err := types.ParseRecord(data)
	if err != nil {
		return nil, err
	}
	if rec.Name != item.String() {
		return nil, fmt.Errorf("stored record for %q has identity %q", item, rec.Name)
	}
	return rec, nil
}
