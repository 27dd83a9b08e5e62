// Package linkcmder provides the link command for binding the working
// directory to a rewind project.
package linkcmder

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/rewind/pkg/cliui"
	"github.com/papercomputeco/rewind/pkg/dotdir"
	"github.com/papercomputeco/rewind/pkg/git"
)

const linkLongDesc string = `Bind this directory to a rewind project.

The binding is stored as project.json in the .rewind/ directory and
used by commands like blame and ingest when no --project is given.

Examples:
  rewind link my-app        Bind to the project "my-app"
  rewind link --new         Bind to a freshly generated project ID
  rewind link --clear       Remove the binding`

const linkShortDesc string = "Bind this directory to a project"

type linkCommander struct {
	clear      bool
	newProject bool
}

func NewLinkCmd() *cobra.Command {
	cmder := &linkCommander{}

	cmd := &cobra.Command{
		Use:   "link [project-id]",
		Short: linkShortDesc,
		Long:  linkLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			switch {
			case cmder.clear:
				return runClear(configDir)
			case cmder.newProject:
				return runLink(uuid.NewString(), configDir)
			default:
				if len(args) == 0 {
					return errors.New("project-id argument required (or --new to generate one, --clear to unbind)")
				}
				return runLink(args[0], configDir)
			}
		},
	}

	cmd.Flags().BoolVar(&cmder.clear, "clear", false, "Remove the project binding")
	cmd.Flags().BoolVar(&cmder.newProject, "new", false, "Generate a fresh project ID and bind to it")

	return cmd
}

func runLink(projectID, configDir string) error {
	state := &dotdir.ProjectState{
		ProjectID: projectID,
		RepoName:  git.RepoName(),
		LinkedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	if err := dotdir.NewManager().SaveProject(state, configDir); err != nil {
		return fmt.Errorf("saving project binding: %w", err)
	}

	fmt.Printf("\n  %s Linked to project %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(projectID))

	return nil
}

func runClear(configDir string) error {
	if err := dotdir.NewManager().ClearProject(configDir); err != nil {
		return fmt.Errorf("clearing project binding: %w", err)
	}

	fmt.Printf("\n  %s Project binding cleared.\n\n", cliui.SuccessMark)

	return nil
}
