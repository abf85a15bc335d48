package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/cli/render"
	"github.com/dexfetch/dexfetch/types"
)

// VersionResponse carries build identity for rendering.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// VersionCommand returns the version command. The commit is injected at
// build time via ldflags.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: ReadOnlyFlags(),
		Action: func(c *cli.Context) error {
			return versionAction(c, commit)
		},
	}
}

func versionAction(c *cli.Context, commit string) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailedItems)
	}
	return r.Render(VersionResponse{
		Version: types.Version,
		Commit:  commit,
	})
}
