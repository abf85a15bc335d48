// Package cmd provides CLI commands for the dexfetch binary.
package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/store"
	"github.com/dexfetch/dexfetch/types"
)

// DefaultItems is the batch fetched when --items is not given.
var DefaultItems = []string{"bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon"}

// DefaultOutputDir is the default record store directory.
const DefaultOutputDir = "./dex-data"

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
	}
}

// StoreFlags returns the flags shared by every command that opens the
// record store.
func StoreFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Record store directory (fs backend)",
			Value:   DefaultOutputDir,
		},
		&cli.StringFlag{
			Name:  "store-backend",
			Usage: "Record store backend: fs or s3 (experimental)",
			Value: "fs",
		},
		&cli.StringFlag{
			Name:  "s3-path",
			Usage: "S3 location as bucket/prefix (s3 backend)",
		},
		&cli.StringFlag{
			Name:  "s3-region",
			Usage: "AWS region for the s3 backend (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "s3-endpoint",
			Usage: "Custom S3 endpoint (optional)",
		},
		&cli.BoolFlag{
			Name:  "s3-path-style",
			Usage: "Use path-style S3 addressing",
		},
	}
}

// storeChoice is the resolved record store selection, merged from the
// store flags and (for the run command) the config file.
type storeChoice struct {
	backend     string
	outputDir   string
	s3Path      string
	s3Region    string
	s3Endpoint  string
	s3PathStyle bool
}

// storeChoiceFromFlags reads the store flags into a choice.
func storeChoiceFromFlags(c *cli.Context) storeChoice {
	return storeChoice{
		backend:     c.String("store-backend"),
		outputDir:   c.String("output-dir"),
		s3Path:      c.String("s3-path"),
		s3Region:    c.String("s3-region"),
		s3Endpoint:  c.String("s3-endpoint"),
		s3PathStyle: c.Bool("s3-path-style"),
	}
}

// open builds the record store selected by the choice.
func (sc storeChoice) open(ctx context.Context) (store.Store, error) {
	switch sc.backend {
	case "fs", "":
		return store.NewFSStore(sc.outputDir)
	case "s3":
		bucket, prefix := store.ParseS3Path(sc.s3Path)
		return store.NewS3Store(ctx, store.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       sc.s3Region,
			Endpoint:     sc.s3Endpoint,
			UsePathStyle: sc.s3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown store-backend: %s (must be fs or s3)", sc.backend)
	}
}

// location names where records land, for completion events.
func (sc storeChoice) location() string {
	if sc.backend == "s3" {
		return "s3://" + sc.s3Path
	}
	return sc.outputDir
}

// openStore builds the record store selected by the store flags.
func openStore(c *cli.Context) (store.Store, error) {
	return storeChoiceFromFlags(c).open(c.Context)
}

// parseItems converts and validates item name arguments.
func parseItems(names []string) ([]types.Item, error) {
	if len(names) == 0 {
		names = DefaultItems
	}
	items := make([]types.Item, len(names))
	for i, n := range names {
		items[i] = types.Item(n)
	}
	if err := types.ValidateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}
