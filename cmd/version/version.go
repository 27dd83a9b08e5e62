// Package versioncmder prints the build metadata stamped into the binary.
package versioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/rewind/pkg/cliui"
	"github.com/papercomputeco/rewind/pkg/utils"
)

type VersionCommander struct{}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Long:  "Print the version, commit, and build time stamped into this binary.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	return cmd
}

func (c *VersionCommander) run() error {
	rows := []struct{ key, value string }{
		{"version", utils.Version},
		{"sha", utils.Sha},
		{"built", utils.Buildtime},
	}
	for _, row := range rows {
		fmt.Printf("  %s  %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("%-7s", row.key)),
			cliui.ValueStyle.Render(row.value),
		)
	}
	return nil
}
