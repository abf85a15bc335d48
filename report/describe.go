// Package report projects validated records into human-readable
// sentences, CSV rows, and aggregate statistics.
//
// Upstream records carry measurements in tenths of the display unit
// (decimetres, hectograms); everything here converts to metres and
// kilograms at the presentation boundary. All functions are pure
// computation over already-validated records.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dexfetch/dexfetch/types"
)

// Describe renders a record as a fixed-template sentence, e.g.
//
//	Bulbasaur is a Grass/Poison type that stands 0.7 m tall and weighs 7 kg.
func Describe(rec *types.Record) string {
	return fmt.Sprintf("%s is a %s type that stands %s m tall and weighs %s kg.",
		capitalize(rec.Name),
		joinTags(rec.TagNames()),
		HeightMetres(rec.Height),
		WeightKilograms(rec.Weight),
	)
}

// HeightMetres converts decimetres to metres with one decimal place.
func HeightMetres(dm int64) string {
	return strconv.FormatFloat(float64(dm)/10, 'f', 1, 64)
}

// WeightKilograms converts hectograms to kilograms rounded to the
// nearest integer.
func WeightKilograms(hg int64) string {
	return strconv.FormatInt(int64(math.Round(float64(hg)/10)), 10)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinTags(tags []string) string {
	capped := make([]string, 0, len(tags))
	for _, t := range tags {
		capped = append(capped, capitalize(t))
	}
	return strings.Join(capped, "/")
}
