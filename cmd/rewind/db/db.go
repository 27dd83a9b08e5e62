package dbcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/rewind/pkg/cliui"
	"github.com/papercomputeco/rewind/pkg/config"
	"github.com/papercomputeco/rewind/pkg/storage/postgres"
)

const dbLongDesc = `Manage the PostgreSQL schema behind the rewind API server.

Subcommands connect to the database named by --database-url (or the
storage.database_url config key) and create, inspect, or remove the
attribution tables. Destructive subcommands ask for confirmation before
connecting.

Example usage:
    rewind db create --database-url postgres://localhost:5432/rewind
    rewind db status
    rewind db drop
    rewind db reset`

// DBCommander manages the PostgreSQL schema lifecycle.
type DBCommander struct {
	databaseURL string
}

// NewDBCmd creates the db command with its schema subcommands.
func NewDBCmd() *cobra.Command {
	cmder := &DBCommander{}

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the PostgreSQL schema",
		Long:  dbLongDesc,
	}

	cmd.AddCommand(cmder.newCreateCmd())
	cmd.AddCommand(cmder.newDropCmd())
	cmd.AddCommand(cmder.newResetCmd())
	cmd.AddCommand(cmder.newStatusCmd())

	return cmd
}

func (c *DBCommander) newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create all attribution tables",
		Args:    cobra.NoArgs,
		PreRunE: c.resolveURL,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runCreate(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagDatabaseURL, &c.databaseURL)

	return cmd
}

func (c *DBCommander) newDropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "drop",
		Short:   "Drop all attribution tables",
		Args:    cobra.NoArgs,
		PreRunE: c.resolveURL,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runDrop(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagDatabaseURL, &c.databaseURL)

	return cmd
}

func (c *DBCommander) newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reset",
		Short:   "Drop and recreate all attribution tables",
		Args:    cobra.NoArgs,
		PreRunE: c.resolveURL,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runReset(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagDatabaseURL, &c.databaseURL)

	return cmd
}

func (c *DBCommander) newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show per-table row counts",
		Args:    cobra.NoArgs,
		PreRunE: c.resolveURL,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runStatus(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagDatabaseURL, &c.databaseURL)

	return cmd
}

// resolveURL loads config and resolves the database URL through the viper
// precedence chain. Every db subcommand needs a URL, so this is the shared
// PreRunE.
func (c *DBCommander) resolveURL(cmd *cobra.Command, _ []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagDatabaseURL})

	c.databaseURL = v.GetString("storage.database_url")
	if c.databaseURL == "" {
		return errors.New("no database URL configured; pass --database-url or set storage.database_url")
	}

	return nil
}

func (c *DBCommander) runCreate(ctx context.Context) error {
	driver, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	err = cliui.Step(os.Stdout, "Creating tables", func() error {
		return driver.Migrate(ctx)
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s Schema ready\n", cliui.SuccessMark)

	return nil
}

func (c *DBCommander) runDrop(ctx context.Context) error {
	ok, err := confirm(os.Stdin, "Are you sure you want to drop all tables? (yes/no): ")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Cancelled.")
		return nil
	}

	driver, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	err = cliui.Step(os.Stdout, "Dropping tables", func() error {
		return driver.Drop(ctx)
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s All tables dropped\n", cliui.SuccessMark)

	return nil
}

func (c *DBCommander) runReset(ctx context.Context) error {
	ok, err := confirm(os.Stdin, "Are you sure you want to reset the database? This deletes all data. (yes/no): ")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Cancelled.")
		return nil
	}

	driver, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	err = cliui.Step(os.Stdout, "Resetting database", func() error {
		if err := driver.Drop(ctx); err != nil {
			return err
		}
		return driver.Migrate(ctx)
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s Database reset\n", cliui.SuccessMark)

	return nil
}

func (c *DBCommander) runStatus(ctx context.Context) error {
	driver, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	statuses, err := driver.Status(ctx)
	if err != nil {
		return fmt.Errorf("querying table status: %w", err)
	}

	fmt.Println(cliui.HeaderStyle.Render("Database status"))
	for _, st := range statuses {
		name := cliui.NameStyle.Render(st.Name)
		if !st.Exists {
			fmt.Printf("  %s  %s\n", name, cliui.DimStyle.Render("table does not exist"))
			continue
		}
		fmt.Printf("  %s  %s\n", name, cliui.ValueStyle.Render(fmt.Sprintf("%d rows", st.Rows)))
	}

	return nil
}

// connect opens a connection without running migrations, so status and drop
// never create schema as a side effect.
func (c *DBCommander) connect(ctx context.Context) (*postgres.Driver, error) {
	driver, err := postgres.Connect(ctx, c.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	return driver, nil
}

// confirm reads one line from r and reports whether the user typed "yes".
// Anything else, including EOF, declines.
func confirm(r io.Reader, prompt string) (bool, error) {
	fmt.Print(prompt)

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, fmt.Errorf("reading confirmation: %w", err)
		}
		return false, nil
	}

	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "yes", nil
}
