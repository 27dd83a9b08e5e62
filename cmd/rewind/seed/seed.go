package seedcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/rewind/cmd/rewind/projectid"
	"github.com/papercomputeco/rewind/pkg/cliui"
	"github.com/papercomputeco/rewind/pkg/config"
	"github.com/papercomputeco/rewind/pkg/storage/sqlite"
)

const seedLongDesc string = `Seed demo attribution data into a SQLite database.

Creates a demo project holding agent traces from several tools, a commit
link with a per-line ledger, and conversation transcripts, so blame has
something to attribute without a live agent feeding the store.

Examples:
  rewind seed
  rewind seed --sqlite ./rewind.db
  rewind seed --project demo --overwrite`

const seedShortDesc string = "Seed demo attribution data"

type seedCommander struct {
	sqlitePath string
	project    string
	overwrite  bool
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagSQLite})
			cmder.sqlitePath = v.GetString("storage.sqlite_path")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.Context(), configDir)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	cmd.Flags().StringVarP(&cmder.project, "project", "p", "", "Project ID to seed into")
	cmd.Flags().BoolVarP(&cmder.overwrite, "overwrite", "f", false, "Remove the database file before seeding")

	return cmd
}

func (c *seedCommander) run(ctx context.Context, configDir string) error {
	projectID, err := projectid.Resolve(c.project, configDir)
	if err != nil {
		return err
	}

	sqlitePath := c.sqlitePath
	if strings.TrimSpace(sqlitePath) == "" {
		sqlitePath = "rewind.db"
	}

	if c.overwrite {
		if err := os.Remove(sqlitePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", sqlitePath, err)
		}
	}

	driver, err := sqlite.NewSQLiteDriver(sqlitePath)
	if err != nil {
		return fmt.Errorf("opening SQLite store: %w", err)
	}
	defer driver.Close()

	var counts seedCounts
	if err := cliui.Step(os.Stdout, "Seeding demo data", func() error {
		var seedErr error
		counts, seedErr = seedDemo(ctx, driver, projectID)
		return seedErr
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Seeded %s traces %s into %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(counts.traces)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d commit links, %d conversations)", counts.links, counts.conversations)),
		cliui.DimStyle.Render(sqlitePath),
	)
	return nil
}
