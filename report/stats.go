package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrEmptyCSV indicates the input had no data rows beneath the header.
var ErrEmptyCSV = errors.New("csv has no data rows")

// ColumnStats holds aggregate statistics for one numeric CSV column.
type ColumnStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
	Mean  float64 `json:"mean"`
}

// Stats is the aggregate view over an exported CSV.
type Stats struct {
	Count  int         `json:"count"`
	Height ColumnStats `json:"height_m"`
	Weight ColumnStats `json:"weight_kg"`
}

// Aggregate computes count, min/max/range, and arithmetic mean for the
// two numeric columns of an exported CSV. The header row is skipped.
func Aggregate(r io.Reader) (*Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	// Header row. An entirely empty input is the same failure as a
	// header-only one.
	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyCSV
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var heights, weights []float64
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		h, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric height %q in row for %s: %w", row[1], row[0], err)
		}
		w, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric weight %q in row for %s: %w", row[2], row[0], err)
		}
		heights = append(heights, h)
		weights = append(weights, w)
	}

	if len(heights) == 0 {
		return nil, ErrEmptyCSV
	}

	return &Stats{
		Count:  len(heights),
		Height: columnStats(heights),
		Weight: columnStats(weights),
	}, nil
}

func columnStats(values []float64) ColumnStats {
	min, max, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return ColumnStats{
		Min:   min,
		Max:   max,
		Range: max - min,
		Mean:  sum / float64(len(values)),
	}
}
