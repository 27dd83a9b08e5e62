package attribution

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/utils"
)

// Engine resolves blame segments to traces: ledger first, then candidate
// discovery, file scoping, scoring, gating, tier mapping, and merging. It
// holds no mutable state and is safe for concurrent use; identical inputs
// over an identical Store always produce identical output.
type Engine struct {
	config Config
	store  Store
	logger *zap.Logger
}

// NewEngine creates an attribution engine over store.
func NewEngine(config Config, store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		config: config,
		store:  store,
		logger: logger,
	}
}

// AttributeFile attributes every blamed segment of one file and returns the
// merged attribution list ordered by start line. Store failures abort the
// whole request; segments that simply have no plausible trace yield
// no-attribution entries instead.
func (e *Engine) AttributeFile(ctx context.Context, req FileRequest) (*FileResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(req.Segments))
	for _, seg := range req.Segments {
		res, err := e.attributeSegment(ctx, req.ProjectID, req.FilePath, seg)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	// The merger requires its input ordered by start line; blame output
	// normally arrives that way but callers are not trusted to.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].StartLine < results[j].StartLine
	})

	return &FileResult{
		FilePath:     req.FilePath,
		Attributions: Merge(results),
	}, nil
}

func (e *Engine) attributeSegment(ctx context.Context, projectID, filePath string, seg BlameSegment) (Result, error) {
	ledger, err := e.store.GetLedger(ctx, projectID, seg.CommitSHA)
	if err != nil {
		return Result{}, fmt.Errorf("ledger lookup for %s: %w", seg.CommitSHA, err)
	}
	if entries, ok := ledgerEntries(ledger, filePath); ok {
		return e.resolveFromLedger(ctx, projectID, entries, seg), nil
	}

	link, err := e.store.GetCommitLink(ctx, projectID, seg.CommitSHA)
	if err != nil {
		return Result{}, fmt.Errorf("commit link lookup for %s: %w", seg.CommitSHA, err)
	}
	var linkedTraceIDs []string
	if link != nil {
		linkedTraceIDs = link.TraceIDs
	}

	candidates, err := e.findCandidates(ctx, projectID, filePath, seg, linkedTraceIDs)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return noAttribution(seg), nil
	}

	line := representativeLine(seg)
	var (
		winner        *agenttrace.AgentTrace
		winnerScore   int
		winnerSignals Signals
	)
	for _, trace := range candidates {
		score, signals := e.scoreTrace(trace, filePath, line, seg, linkedTraceIDs)
		if !PassesGate(signals) {
			continue
		}
		// Ties resolve to the larger signal set, then to the earlier
		// candidate. Candidate order follows trace creation order, so
		// selection is deterministic across runs.
		if winner == nil || score > winnerScore ||
			(score == winnerScore && len(signals) > len(winnerSignals)) {
			winner = trace
			winnerScore = score
			winnerSignals = signals
		}
	}
	if winner == nil {
		return noAttribution(seg), nil
	}

	tier := TierFor(winnerScore, winnerSignals, e.config.Thresholds)
	if tier == TierNone {
		return noAttribution(seg), nil
	}

	return e.buildResult(ctx, projectID, filePath, seg, winner, tier, winnerSignals, candidates), nil
}

// buildResult assembles the response entry for a winning trace. Model and
// conversation metadata missing from the winner is filled from its other
// file entries, then from the other candidates, so commit-linked traces
// that share a session still surface a model and a conversation URL.
func (e *Engine) buildResult(
	ctx context.Context,
	projectID string,
	filePath string,
	seg BlameSegment,
	winner *agenttrace.AgentTrace,
	tier Tier,
	signals Signals,
	candidates []*agenttrace.AgentTrace,
) Result {
	res := Result{
		StartLine:        seg.StartLine,
		EndLine:          seg.EndLine,
		Tier:             tier,
		Confidence:       tier.Confidence(),
		TraceID:          winner.ID,
		Tool:             winner.Tool,
		Signals:          signals,
		CommitLinkMatch:  signals.Has(SignalCommitLink),
		ContentHashMatch: signals.Has(SignalContentHash),
	}

	modelID, convURL, contribType := conversationMeta(winner, filePath)
	if modelID == "" || convURL == "" {
		for _, t := range candidates {
			if t.ID == winner.ID {
				continue
			}
			m, u, ct := conversationMeta(t, filePath)
			if modelID == "" {
				modelID = m
			}
			if convURL == "" {
				convURL = u
			}
			if contribType == "" {
				contribType = ct
			}
			if modelID != "" && convURL != "" {
				break
			}
		}
	}
	if contribType == "" {
		contribType = "unknown"
	}

	res.ModelID = modelID
	res.ConversationURL = convURL
	res.ContributorType = contribType
	res.Contributor = &agenttrace.Contributor{Type: contribType, ModelID: modelID}
	res.ConversationSummary = e.conversationSummary(ctx, projectID, convURL)

	return res
}

// conversationMeta extracts (modelID, conversationURL, contributorType)
// from a trace's conversations, preferring the file entry matching path and
// not stopping until both model and URL are found.
func conversationMeta(trace *agenttrace.AgentTrace, path string) (modelID, convURL, contribType string) {
	scan := func(f *agenttrace.File) {
		for i := range f.Conversations {
			conv := &f.Conversations[i]
			if c := conv.Contributor; c != nil {
				if modelID == "" {
					modelID = c.ModelID
				}
				if contribType == "" {
					contribType = c.Type
				}
			}
			if convURL == "" {
				convURL = conv.URL
			}
			if modelID != "" && convURL != "" {
				return
			}
		}
	}

	matched := matchingFile(trace.Files, path)
	if matched != nil {
		scan(matched)
		if modelID != "" && convURL != "" {
			return
		}
	}
	for i := range trace.Files {
		if &trace.Files[i] == matched {
			continue
		}
		scan(&trace.Files[i])
		if modelID != "" && convURL != "" {
			return
		}
	}
	return
}

// conversationSummary fetches and truncates stored conversation content.
// A failed lookup only costs the summary, never the attribution.
func (e *Engine) conversationSummary(ctx context.Context, projectID, url string) string {
	if url == "" {
		return ""
	}
	content, err := e.store.GetConversationContent(ctx, projectID, url)
	if err != nil {
		e.logger.Debug("conversation content lookup failed",
			zap.String("url", url),
			zap.Error(err),
		)
		return ""
	}
	if content == "" {
		return ""
	}
	return utils.Truncate(content, e.config.MaxSummaryLen)
}
