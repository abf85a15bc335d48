package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/cli/render"
	"github.com/dexfetch/dexfetch/store"
	"github.com/dexfetch/dexfetch/types"
)

// validationRow is one item's validation outcome.
type validationRow struct {
	Item  string `json:"item"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateCommand returns the validate command: a validate-only pass
// over existing outputs, no network.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate existing outputs without fetching",
		ArgsUsage: "[item ...]",
		Flags:     append(StoreFlags(), ReadOnlyFlags()...),
		Action:    validateAction,
	}
}

func validateAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailedItems)
	}

	st, err := openStore(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("store init failed: %v", err), exitSetupFailure)
	}
	defer func() { _ = st.Close() }()

	var items []types.Item
	if names := c.Args().Slice(); len(names) > 0 {
		items, err = parseItems(names)
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid items: %v", err), exitFailedItems)
		}
	} else {
		items, err = st.List(c.Context)
		if err != nil {
			return cli.Exit(fmt.Sprintf("cannot list store: %v", err), exitFailedItems)
		}
		sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	}

	rows := make([]validationRow, 0, len(items))
	invalid := 0
	for _, item := range items {
		row := validationRow{Item: item.String(), Valid: true}
		if _, err := store.ReadValid(c.Context, st, item); err != nil {
			row.Valid = false
			row.Error = err.Error()
			if errors.Is(err, store.ErrNoRecord) {
				row.Error = "no output"
			}
			invalid++
		}
		rows = append(rows, row)
	}

	if err := r.Render(rows); err != nil {
		return err
	}
	if invalid > 0 {
		return cli.Exit("", exitFailedItems)
	}
	return nil
}
