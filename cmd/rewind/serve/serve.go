// Package servecmder provides the serve command for running the API server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/api"
	"github.com/papercomputeco/rewind/pkg/config"
	"github.com/papercomputeco/rewind/pkg/credentials"
	"github.com/papercomputeco/rewind/pkg/eventstream"
	"github.com/papercomputeco/rewind/pkg/eventstream/kafka"
	"github.com/papercomputeco/rewind/pkg/logger"
	"github.com/papercomputeco/rewind/pkg/storage"
	"github.com/papercomputeco/rewind/pkg/storage/cached"
	"github.com/papercomputeco/rewind/pkg/storage/inmemory"
	"github.com/papercomputeco/rewind/pkg/storage/postgres"
	"github.com/papercomputeco/rewind/pkg/storage/sqlite"
)

type ServeCommander struct {
	listen      string
	sqlitePath  string
	databaseURL string
	cacheSize   uint
	eventsOn    bool
	brokers     []string
	topic       string
	authSecret  string
	debug       bool

	logger *zap.Logger
}

const serveLongDesc string = `Run the rewind API server.

Storage is selected from config and flags: a database URL selects
PostgreSQL, a SQLite path selects SQLite, and neither selects an
in-memory store that forgets everything on exit.

Examples:
  rewind serve
  rewind serve --listen :5000 --sqlite ./rewind.db
  rewind serve --database-url postgres://rewind@localhost:5432/rewind
  rewind serve --cache-size 512 --events --brokers localhost:9092`

const serveShortDesc string = "Run the rewind API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagListen,
				config.FlagSQLite,
				config.FlagDatabaseURL,
				config.FlagCacheSize,
				config.FlagEventsEnabled,
				config.FlagBrokers,
				config.FlagTopic,
			})

			cmder.listen = v.GetString("api.listen")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.databaseURL = v.GetString("storage.database_url")
			cmder.cacheSize = v.GetUint("storage.cache_size")
			cmder.eventsOn = v.GetBool("events.enabled")
			cmder.brokers = v.GetStringSlice("events.brokers")
			cmder.topic = v.GetString("events.topic")
			cmder.authSecret = v.GetString("api.auth_secret")

			// A secret stored via "rewind auth secret" wins over config.
			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}
			if secret, err := mgr.GetSecret(); err == nil && secret != "" {
				cmder.authSecret = secret
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagDatabaseURL, &cmder.databaseURL)
	config.AddUintFlag(cmd, config.Flags, config.FlagCacheSize, &cmder.cacheSize)
	config.AddBoolFlag(cmd, config.Flags, config.FlagEventsEnabled, &cmder.eventsOn)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagTopic, &cmder.topic)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if c.authSecret == "" || c.authSecret == config.DefaultAuthSecret {
		c.authSecret = config.DefaultAuthSecret
		c.logger.Warn("using the default auth secret; run 'rewind auth secret' before exposing this server")
	}

	storer, err := c.createStorer(ctx)
	if err != nil {
		return err
	}
	defer storer.Close()

	publisher, err := c.createPublisher()
	if err != nil {
		return err
	}
	if publisher != nil {
		defer func() { _ = publisher.Close() }()
	}

	apiConfig := api.Config{
		ListenAddr: c.listen,
		AuthSecret: c.authSecret,
	}

	var pub eventstream.Publisher
	if publisher != nil {
		pub = publisher
	}

	server, err := api.NewServer(apiConfig, storer, pub, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

// createStorer selects the storage backend, wrapping it in the LRU read
// cache when one is configured.
func (c *ServeCommander) createStorer(ctx context.Context) (storage.Driver, error) {
	var storer storage.Driver

	switch {
	case c.databaseURL != "":
		driver, err := postgres.NewDriver(ctx, c.databaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating PostgreSQL storer: %w", err)
		}
		c.logger.Info("using PostgreSQL storage")
		storer = driver
	case c.sqlitePath != "":
		driver, err := sqlite.NewSQLiteDriver(c.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("creating SQLite storer: %w", err)
		}
		c.logger.Info("using SQLite storage", zap.String("path", c.sqlitePath))
		storer = driver
	default:
		c.logger.Info("using in-memory storage")
		storer = inmemory.NewDriver()
	}

	if c.cacheSize > 0 {
		wrapped, err := cached.New(storer, int(c.cacheSize))
		if err != nil {
			storer.Close()
			return nil, fmt.Errorf("creating read cache: %w", err)
		}
		c.logger.Info("read cache enabled", zap.Uint("size", c.cacheSize))
		return wrapped, nil
	}

	return storer, nil
}

// createPublisher builds the Kafka publisher when events are enabled.
// Returns nil when they are not, which disables event emission entirely.
func (c *ServeCommander) createPublisher() (*kafka.Publisher, error) {
	if !c.eventsOn {
		return nil, nil
	}
	if len(c.brokers) == 0 {
		return nil, fmt.Errorf("events enabled but no brokers configured; pass --brokers or set events.brokers")
	}

	c.logger.Info("publishing ingest events",
		zap.Strings("brokers", c.brokers),
		zap.String("topic", c.topic),
	)

	return kafka.NewPublisher(c.brokers, c.topic), nil
}
