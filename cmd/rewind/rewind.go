// Package rewindcmder
package rewindcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/rewind/cmd/rewind/auth"
	blamecmder "github.com/papercomputeco/rewind/cmd/rewind/blame"
	configcmder "github.com/papercomputeco/rewind/cmd/rewind/config"
	dbcmder "github.com/papercomputeco/rewind/cmd/rewind/db"
	ingestcmder "github.com/papercomputeco/rewind/cmd/rewind/ingest"
	linkcmder "github.com/papercomputeco/rewind/cmd/rewind/link"
	seedcmder "github.com/papercomputeco/rewind/cmd/rewind/seed"
	servecmder "github.com/papercomputeco/rewind/cmd/rewind/serve"
	versioncmder "github.com/papercomputeco/rewind/cmd/version"
)

const rewindLongDesc string = `Rewind answers "which agent session wrote this line?".

Record agent traces, link them to commits, and blame files:
  rewind serve             Run the attribution API server
  rewind blame <file>      Attribute a file's lines from local git blame
  rewind ingest <trace>    Push a recorded trace to the API server
  rewind link <project>    Bind this directory to a project`

const rewindShortDesc string = "Rewind - Line Attribution for Agent Sessions"

func NewRewindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewind",
		Short: rewindShortDesc,
		Long:  rewindLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .rewind/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(blamecmder.NewBlameCmd())
	cmd.AddCommand(linkcmder.NewLinkCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(dbcmder.NewDBCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
