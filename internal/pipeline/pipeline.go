// Package pipeline orchestrates the per-client consolidation run: discover
// files, resolve identities, read and repair, normalize, validate, aggregate.
// Clients are independent; a failure in one client's files never aborts the
// others.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rahulprajapat123/investment-manager/internal/aggregator"
	"github.com/rahulprajapat123/investment-manager/internal/detector"
	apperrors "github.com/rahulprajapat123/investment-manager/internal/errors"
	"github.com/rahulprajapat123/investment-manager/internal/infrastructure"
	"github.com/rahulprajapat123/investment-manager/internal/normalizer"
	"github.com/rahulprajapat123/investment-manager/internal/reader"
	"github.com/rahulprajapat123/investment-manager/internal/resolver"
	"github.com/rahulprajapat123/investment-manager/internal/validator"
	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

// clientFile is one discovered file with its resolved identity and kind.
type clientFile struct {
	path   string
	kind   domain.FileKind
	broker string
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	logger     *slog.Logger
	metrics    *infrastructure.Metrics
	discovery  FileDiscovery
	detector   *detector.Detector
	resolver   *resolver.Resolver
	reader     *reader.Reader
	normalizer *normalizer.Normalizer
	validator  *validator.Validator
	aggregator *aggregator.Aggregator
	maxWorkers int

	// clientMu serializes runs per client so at most one consolidation per
	// client is in flight even when runs overlap.
	mu       sync.Mutex
	clientMu map[string]*sync.Mutex
}

// Deps carries the stage implementations for New.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *infrastructure.Metrics
	Discovery  FileDiscovery
	Detector   *detector.Detector
	Resolver   *resolver.Resolver
	Reader     *reader.Reader
	Normalizer *normalizer.Normalizer
	Validator  *validator.Validator
	Aggregator *aggregator.Aggregator
	MaxWorkers int
}

// New creates a pipeline from its stage implementations.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Discovery == nil {
		deps.Discovery = FilesystemDiscovery{}
	}
	if deps.MaxWorkers <= 0 {
		deps.MaxWorkers = 1
	}
	return &Pipeline{
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		discovery:  deps.Discovery,
		detector:   deps.Detector,
		resolver:   deps.Resolver,
		reader:     deps.Reader,
		normalizer: deps.Normalizer,
		validator:  deps.Validator,
		aggregator: deps.Aggregator,
		maxWorkers: deps.MaxWorkers,
		clientMu:   make(map[string]*sync.Mutex),
	}
}

// RunAll discovers every file under dataDir, groups the files by resolved
// client, and consolidates each client. Results come back sorted by client
// ID. Files whose client cannot be resolved are skipped and logged; they
// belong to no client's report.
func (p *Pipeline) RunAll(ctx context.Context, dataDir string) ([]*domain.ClientResult, error) {
	runID := infrastructure.NewRunID()
	ctx = infrastructure.WithRunID(ctx, runID)

	paths, err := p.discovery.Discover(ctx, dataDir)
	if err != nil {
		return nil, err
	}

	byClient := make(map[string][]clientFile)
	for _, path := range paths {
		identity, err := p.resolver.Resolve(ctx, path)
		if err != nil {
			p.logger.WarnContext(ctx, "skipping file with unresolvable client",
				slog.String("path", path), slog.Any("error", err))
			p.countSkip("unresolved_client")
			continue
		}
		byClient[identity.ClientID] = append(byClient[identity.ClientID], clientFile{
			path:   path,
			kind:   p.detector.DetectKind(ctx, path),
			broker: identity.Broker,
		})
	}

	clientIDs := make([]string, 0, len(byClient))
	for id := range byClient {
		clientIDs = append(clientIDs, id)
	}
	sort.Strings(clientIDs)

	results := make([]*domain.ClientResult, len(clientIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)

	for i, clientID := range clientIDs {
		i, clientID := i, clientID
		g.Go(func() error {
			results[i] = p.runClient(gctx, runID, clientID, byClient[clientID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "consolidation run finished",
		slog.String("run_id", runID),
		slog.Int("clients", len(results)),
		slog.Int("files", len(paths)))

	return results, nil
}

// RunClient consolidates a single client from an explicit file list. The
// returned error is only the no-data outcome; per-file problems surface as
// issues inside the result.
func (p *Pipeline) RunClient(ctx context.Context, clientID string, paths []string) (*domain.ClientResult, error) {
	runID := infrastructure.GetRunID(ctx)
	if runID == "" {
		runID = infrastructure.NewRunID()
		ctx = infrastructure.WithRunID(ctx, runID)
	}

	files := make([]clientFile, 0, len(paths))
	for _, path := range paths {
		identity, err := p.resolver.Resolve(ctx, path)
		broker := identity.Broker
		if err != nil {
			broker = ""
		}
		files = append(files, clientFile{
			path:   path,
			kind:   p.detector.DetectKind(ctx, path),
			broker: broker,
		})
	}

	result := p.runClient(ctx, runID, clientID, files)
	if result.NoData() {
		return result, apperrors.NewNoDataError(clientID)
	}
	return result, nil
}

// runClient executes the full stage sequence for one client, serialized per
// client ID.
func (p *Pipeline) runClient(ctx context.Context, runID, clientID string, files []clientFile) *domain.ClientResult {
	lock := p.lockFor(clientID)
	lock.Lock()
	defer lock.Unlock()

	ctx = infrastructure.WithClientID(ctx, clientID)

	result := &domain.ClientResult{
		ClientID:    clientID,
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
	}

	var trades []domain.Trade
	var gains []domain.CapitalGainEvent
	var issues []domain.ValidationIssue

	for _, file := range files {
		switch file.kind {
		case domain.FileKindUnknown:
			issues = append(issues, domain.NewIssue(domain.SeverityWarning, domain.IssueUnknownFileKind, "",
				"file kind could not be determined from the filename, file excluded",
				domain.RecordRef{ClientID: clientID, Broker: file.broker, FilePath: file.path}))
			result.FilesSkipped++
			p.countSkip("unknown_kind")
			continue
		case domain.FileKindHoldings:
			// Broker-reported holdings snapshots are not an input: positions
			// are derived from the trade history.
			p.logger.InfoContext(ctx, "skipping holdings snapshot, positions derive from trades",
				slog.String("path", file.path))
			result.FilesSkipped++
			p.countSkip("holdings_snapshot")
			continue
		}

		raw, fileIssues, err := p.reader.Read(ctx, file.path, file.kind, clientID, file.broker)
		issues = append(issues, fileIssues...)
		if err != nil {
			result.FilesSkipped++
			p.countSkip("unreadable")
			continue
		}

		result.FilesRead++
		p.countRead(file.kind)

		normalized := p.normalizer.NormalizeFile(ctx, raw)
		trades = append(trades, normalized.Trades...)
		gains = append(gains, normalized.Gains...)
		issues = append(issues, normalized.Issues...)
		p.countNormalized(file.kind, len(normalized.Trades)+len(normalized.Gains))
	}

	validated := p.validator.Validate(ctx, trades, gains, issues)
	p.countRejected("trade", len(trades)-len(validated.Trades))
	p.countRejected("gain", len(gains)-len(validated.Gains))

	output := p.aggregator.Aggregate(ctx, clientID, validated.Trades, validated.Gains)

	result.Trades = validated.Trades
	result.Gains = validated.Gains
	result.Issues = append(validated.Issues, output.Issues...)
	result.Holdings = output.Holdings
	result.HoldingsByBroker = output.HoldingsByBroker
	result.Summary = output.Summary
	result.GainSummaries = output.GainSummaries

	p.countIssues(result.Issues)
	if p.metrics != nil {
		p.metrics.RunsCompleted.Inc()
	}

	p.logger.InfoContext(ctx, "client consolidation complete",
		slog.String("client_id", clientID),
		slog.Int("files_read", result.FilesRead),
		slog.Int("files_skipped", result.FilesSkipped),
		slog.Int("trades", len(result.Trades)),
		slog.Int("gains", len(result.Gains)),
		slog.Int("issues", len(result.Issues)))

	return result
}

func (p *Pipeline) lockFor(clientID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.clientMu[clientID]
	if !ok {
		lock = &sync.Mutex{}
		p.clientMu[clientID] = lock
	}
	return lock
}

func (p *Pipeline) countSkip(reason string) {
	if p.metrics != nil {
		p.metrics.FilesSkipped.WithLabelValues(reason).Inc()
	}
}

func (p *Pipeline) countRead(kind domain.FileKind) {
	if p.metrics != nil {
		p.metrics.FilesRead.WithLabelValues(string(kind)).Inc()
	}
}

func (p *Pipeline) countNormalized(kind domain.FileKind, n int) {
	if p.metrics != nil && n > 0 {
		p.metrics.RecordsNormalized.WithLabelValues(string(kind)).Add(float64(n))
	}
}

func (p *Pipeline) countRejected(kind string, n int) {
	if p.metrics != nil && n > 0 {
		p.metrics.RecordsRejected.WithLabelValues(kind).Add(float64(n))
	}
}

func (p *Pipeline) countIssues(issues []domain.ValidationIssue) {
	if p.metrics == nil {
		return
	}
	for _, issue := range issues {
		p.metrics.IssuesRaised.WithLabelValues(string(issue.Severity)).Inc()
	}
}
