// Package ingestcmder provides the ingest command for pushing a recorded
// trace file to a running API server.
package ingestcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/rewind/cmd/rewind/projectid"
	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/cliui"
	"github.com/papercomputeco/rewind/pkg/config"
	"github.com/papercomputeco/rewind/pkg/credentials"
	"github.com/papercomputeco/rewind/pkg/logger"
)

const ingestLongDesc string = `Push a recorded trace file to the API server.

The file must be a single agent trace document with at least an id and
a timestamp. The API token stored by "rewind auth token" authenticates
the request; the project is resolved from --project, then the binding
written by "rewind link", then the git repository name.

Examples:
  rewind ingest trace.json
  rewind ingest trace.json --project my-app
  rewind ingest trace.json --api-target http://localhost:5000`

const ingestShortDesc string = "Push a recorded trace to the API server"

type ingestCommander struct {
	project   string
	apiTarget string
	debug     bool
}

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <trace.json>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPITarget})

			cmder.apiTarget = v.GetString("client.api_target")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.Context(), args[0], configDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.project, "project", "p", "", "Project to ingest the trace into")
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *ingestCommander) run(ctx context.Context, path, configDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading trace file: %w", err)
	}

	var trace agenttrace.AgentTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return fmt.Errorf("parsing trace file: %w", err)
	}
	if trace.ID == "" || trace.Timestamp == "" {
		return errors.New("trace file must include id and timestamp")
	}

	projectID, err := projectid.Resolve(c.project, configDir)
	if err != nil {
		return err
	}

	// Diagnostics go to stderr so they never interleave with the
	// progress output on stdout.
	log := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)
	log.Debug("resolved project", "project_id", projectID)

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	token, err := mgr.GetToken()
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("no API token stored; run 'rewind auth token --user <id>' first")
	}

	if err := cliui.Step(os.Stdout, "Pushing "+trace.ID, func() error {
		return pushTrace(ctx, log, c.apiTarget, token, projectID, data)
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Ingested %s into %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(trace.ID),
		cliui.NameStyle.Render(projectID),
	)

	return nil
}

// pushTrace posts the raw trace document to the ingest endpoint.
func pushTrace(ctx context.Context, log *slog.Logger, apiTarget, token, projectID string, trace json.RawMessage) error {
	target, err := url.Parse(apiTarget)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	target.Path = "/api/v1/traces"

	payload, err := json.Marshal(map[string]json.RawMessage{
		"project_id": json.RawMessage(fmt.Sprintf("%q", projectID)),
		"trace":      trace,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	log.Debug("pushing trace", "url", target.String(), "bytes", len(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to rewind API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	log.Debug("api response", "status", resp.StatusCode)

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ingest failed (HTTP %d): %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	return nil
}
