package cmd

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/store"
	"github.com/dexfetch/dexfetch/types"
)

// loadRecords reads validated records for the named items, or for every
// stored item (sorted by name) when no names are given.
func loadRecords(c *cli.Context, st store.Store, names []string) ([]*types.Record, error) {
	var items []types.Item
	if len(names) > 0 {
		var err error
		items, err = parseItems(names)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		items, err = st.List(c.Context)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("no stored records; run `dexfetch run` first")
		}
		sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	}

	records := make([]*types.Record, 0, len(items))
	for _, item := range items {
		rec, err := store.ReadValid(c.Context, st, item)
		if err != nil {
			return nil, fmt.Errorf("record for %s: %w", item, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
