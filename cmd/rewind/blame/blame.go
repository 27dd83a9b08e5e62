// Package blamecmder provides the blame command for fully local line
// attribution: git blame feeds the attribution engine over a SQLite store,
// no API server required.
package blamecmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/rewind/cmd/rewind/projectid"
	"github.com/papercomputeco/rewind/pkg/attribution"
	"github.com/papercomputeco/rewind/pkg/cliui"
	"github.com/papercomputeco/rewind/pkg/config"
	"github.com/papercomputeco/rewind/pkg/git"
	"github.com/papercomputeco/rewind/pkg/logger"
	"github.com/papercomputeco/rewind/pkg/storage/sqlite"
	"github.com/papercomputeco/rewind/pkg/utils"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	fileStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	lineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	traceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
	modelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type blameCommander struct {
	project    string
	sqlitePath string
	jsonOut    bool
	debug      bool
}

const blameLongDesc string = `Attribute a file's lines to recorded agent sessions.

Runs git blame over the file, hashes each blamed segment, and asks the
attribution engine which stored trace best explains it. Results render
as one row per merged line range with a confidence tier from T1
(commit-linked with matching content) down to T6, or "--" when no trace
clears the evidence gate.

The project is resolved from --project, then the binding written by
"rewind link", then the git repository name.

Examples:
  rewind blame src/server.go
  rewind blame src/server.go --json
  rewind blame src/server.go --project my-app --sqlite ./rewind.db`

const blameShortDesc string = "Attribute a file's lines to agent sessions"

func NewBlameCmd() *cobra.Command {
	cmder := &blameCommander{}

	cmd := &cobra.Command{
		Use:   "blame <file>",
		Short: blameShortDesc,
		Long:  blameLongDesc,
		Args:  cobra.ExactArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.Context(), args[0], configDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.project, "project", "p", "", "Project holding the stored traces")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Emit the attribution result as JSON")
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)

	return cmd
}

func (c *blameCommander) run(ctx context.Context, path, configDir string) error {
	projectID, err := projectid.Resolve(c.project, configDir)
	if err != nil {
		return err
	}

	if c.sqlitePath == "" {
		return errors.New("no SQLite database configured; pass --sqlite or set storage.sqlite_path")
	}

	segments, err := git.Blame(ctx, path)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		fmt.Printf("  %s\n", dimStyle.Render("Nothing to blame: "+path+" has no lines."))
		return nil
	}

	driver, err := sqlite.NewSQLiteDriver(c.sqlitePath)
	if err != nil {
		return fmt.Errorf("opening SQLite store: %w", err)
	}
	defer driver.Close()

	log := logger.NewLogger(c.debug)
	defer func() { _ = log.Sync() }()

	engine := attribution.NewEngine(attribution.DefaultConfig(), driver, log)

	result, err := engine.AttributeFile(ctx, buildRequest(projectID, path, segments))
	if err != nil {
		return err
	}

	if c.jsonOut {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	renderText(os.Stdout, projectID, result)
	return nil
}

// buildRequest converts git blame segments into an attribution request,
// hashing each segment's content so the engine can match trace hashes.
func buildRequest(projectID, path string, segments []git.Segment) attribution.FileRequest {
	req := attribution.FileRequest{
		ProjectID: projectID,
		FilePath:  path,
		Segments:  make([]attribution.BlameSegment, 0, len(segments)),
	}

	for _, seg := range segments {
		req.Segments = append(req.Segments, attribution.BlameSegment{
			StartLine:   seg.StartLine,
			EndLine:     seg.EndLine,
			CommitSHA:   seg.CommitSHA,
			ParentSHA:   seg.ParentSHA,
			ContentHash: attribution.HashLines(seg.Lines),
			Timestamp:   seg.Timestamp,
		})
	}

	return req
}

// renderText prints one row per merged attribution range.
func renderText(w io.Writer, projectID string, result *attribution.FileResult) {
	fmt.Fprintf(w, "\n%s %s %s\n\n",
		headerStyle.Render("Attribution for"),
		fileStyle.Render(result.FilePath),
		dimStyle.Render("(project "+projectID+")"),
	)

	for _, attr := range result.Attributions {
		lines := fmt.Sprintf("%4d-%-4d", attr.StartLine, attr.EndLine)
		badge := cliui.TierBadge(int(attr.Tier))

		if attr.TraceID == "" {
			fmt.Fprintf(w, "  %s %s  %s\n",
				lineStyle.Render(lines),
				badge,
				dimStyle.Render("unattributed"),
			)
			continue
		}

		fmt.Fprintf(w, "  %s %s  %s %s %s\n",
			lineStyle.Render(lines),
			badge,
			traceStyle.Render(attr.TraceID),
			modelStyle.Render(attr.ModelID),
			dimStyle.Render(fmt.Sprintf("%.0f%%", attr.Confidence*100)),
		)

		if attr.ConversationSummary != "" {
			summary := strings.ReplaceAll(attr.ConversationSummary, "\n", " ")
			fmt.Fprintf(w, "            %s\n", dimStyle.Render(utils.Truncate(summary, 70)))
		}
	}

	fmt.Fprintln(w)
}
