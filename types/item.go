// Package types defines core domain types for the dexfetch runtime.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
)

// Item names one Pokémon to fetch from the upstream API.
// Items are lowercase alphanumeric plus hyphen, fixed before a run
// starts, and immutable once the run begins.
type Item string

// ErrEmptyItem is returned when validating an empty item name.
var ErrEmptyItem = errors.New("item name must not be empty")

// Validate checks the item name against the allowed character set.
func (i Item) Validate() error {
	if len(i) == 0 {
		return ErrEmptyItem
	}
	for _, c := range i {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return fmt.Errorf("item %q contains invalid character %q (lowercase alphanumeric and hyphen only)", string(i), c)
		}
	}
	return nil
}

// String returns the item name.
func (i Item) String() string { return string(i) }

// ValidateItems validates every item in the list, returning the first error.
func ValidateItems(items []Item) error {
	if len(items) == 0 {
		return errors.New("item list must not be empty")
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}
