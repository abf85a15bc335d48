package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dexfetch/dexfetch/types"
)

// CSVHeader is the fixed column set of the export.
var CSVHeader = []string{"Name", "Height (m)", "Weight (kg)"}

// WriteCSV writes one row per record in input order, preceded by the
// header. Output is byte-identical across runs for identical input.
func WriteCSV(records []*types.Record, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			capitalize(rec.Name),
			HeightMetres(rec.Height),
			WeightKilograms(rec.Weight),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", rec.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
