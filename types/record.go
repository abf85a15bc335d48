package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Parse error sentinels. Use errors.Is for classification.
var (
	// ErrMalformedRecord indicates the body is not parseable JSON.
	ErrMalformedRecord = errors.New("malformed record body")
	// ErrMissingFields indicates parseable JSON missing required fields.
	ErrMissingFields = errors.New("record missing required fields")
)

// TypeTag is one categorical type entry on a record.
type TypeTag struct {
	Slot int      `json:"slot"`
	Type NamedRef `json:"type"`
}

// NamedRef is an upstream named resource reference.
type NamedRef struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Record is the validated document for one item.
//
// Height and Weight carry upstream native units: decimetres and
// hectograms respectively (tenths of the display unit). Records are
// written once through a temp path and atomic move, then read many
// times; they are never mutated in place.
type Record struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Height int64     `json:"height"`
	Weight int64     `json:"weight"`
	Types  []TypeTag `json:"types"`
}

// rawRecord mirrors Record with pointer fields so absence can be
// distinguished from zero values during validation.
type rawRecord struct {
	ID     *int64    `json:"id"`
	Name   *string   `json:"name"`
	Height *int64    `json:"height"`
	Weight *int64    `json:"weight"`
	Types  []TypeTag `json:"types"`
}

// ParseRecord parses and validates a record body.
//
// Returns ErrMalformedRecord (wrapped) when the body is not valid JSON,
// and ErrMissingFields (wrapped, naming the absent fields) when any of
// the required fields is missing. Identity checks against the requested
// item are the caller's responsibility; parsing is item-agnostic.
func ParseRecord(data []byte) (*Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	var missing []string
	if raw.Name == nil || *raw.Name == "" {
		missing = append(missing, "name")
	}
	if raw.ID == nil {
		missing = append(missing, "id")
	}
	if raw.Height == nil {
		missing = append(missing, "height")
	}
	if raw.Weight == nil {
		missing = append(missing, "weight")
	}
	if len(raw.Types) == 0 {
		missing = append(missing, "types")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	return &Record{
		ID:     *raw.ID,
		Name:   *raw.Name,
		Height: *raw.Height,
		Weight: *raw.Weight,
		Types:  raw.Types,
	}, nil
}

// TagNames returns the categorical tag names in slot order as stored.
func (r *Record) TagNames() []string {
	names := make([]string, 0, len(r.Types))
	for _, t := range r.Types {
		names = append(names, t.Type.Name)
	}
	return names
}
