// Command consolidate runs the full consolidation pipeline: it discovers
// broker export files under the data directory, builds each client's
// portfolio views, and writes one report workbook per client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/rahulprajapat123/investment-manager/internal/aggregator"
	"github.com/rahulprajapat123/investment-manager/internal/config"
	"github.com/rahulprajapat123/investment-manager/internal/detector"
	"github.com/rahulprajapat123/investment-manager/internal/infrastructure"
	"github.com/rahulprajapat123/investment-manager/internal/normalizer"
	"github.com/rahulprajapat123/investment-manager/internal/pipeline"
	"github.com/rahulprajapat123/investment-manager/internal/prices"
	"github.com/rahulprajapat123/investment-manager/internal/reader"
	"github.com/rahulprajapat123/investment-manager/internal/report"
	"github.com/rahulprajapat123/investment-manager/internal/resolver"
	"github.com/rahulprajapat123/investment-manager/internal/validator"
	"github.com/rahulprajapat123/investment-manager/pkg/contracts"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "consolidate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataDir := flag.String("data", "", "data directory to ingest (overrides config)")
	outputDir := flag.String("out", "", "directory for report workbooks (overrides config)")
	priceFile := flag.String("prices", "", "CSV price sheet (symbol,price) for holdings valuation")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.VersionString())
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outputDir != "" {
		cfg.Paths.OutputDir = *outputDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mappings, err := config.LoadBrokerMappings(cfg.Paths.BrokerFile)
	if err != nil {
		return fmt.Errorf("failed to load broker mappings: %w", err)
	}

	tolerance, err := decimal.NewFromString(cfg.Pipeline.AmountTolerance)
	if err != nil {
		return fmt.Errorf("invalid amount tolerance %q: %w", cfg.Pipeline.AmountTolerance, err)
	}

	var lookup aggregator.PriceLookup
	if *priceFile != "" {
		lookup, err = prices.LoadFile(logger, *priceFile)
		if err != nil {
			return fmt.Errorf("failed to load price sheet: %w", err)
		}
	}

	p := pipeline.New(pipeline.Deps{
		Logger:     logger,
		Metrics:    infrastructure.NewDefaultMetrics(),
		Discovery:  pipeline.FilesystemDiscovery{},
		Detector:   detector.New(logger),
		Resolver:   resolver.New(logger),
		Reader:     reader.New(logger, cfg.Pipeline.RepairDelimiter),
		Normalizer: normalizer.New(logger, mappings, cfg.Pipeline.DateConvention),
		Validator:  validator.New(logger, tolerance),
		Aggregator: aggregator.New(logger, lookup),
		MaxWorkers: cfg.Pipeline.MaxWorkers,
	})

	results, err := p.RunAll(ctx, cfg.Paths.DataDir)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no client files found under %s", cfg.Paths.DataDir)
	}

	writer := report.NewWriter(logger)
	var failures int
	for _, result := range results {
		if result.NoData() {
			logger.WarnContext(ctx, "no readable input files for client, skipping report",
				slog.String("client_id", result.ClientID))
			continue
		}
		path, err := writer.Write(ctx, result, cfg.Paths.OutputDir)
		if err != nil {
			logger.ErrorContext(ctx, "failed to write client report",
				slog.String("client_id", result.ClientID),
				slog.Any("error", err))
			failures++
			continue
		}
		fmt.Printf("%s: %d holdings, %d trades, %d issues -> %s\n",
			result.ClientID, len(result.Holdings), len(result.Trades), len(result.Issues), path)
	}

	if failures > 0 {
		return fmt.Errorf("%d report(s) failed to write", failures)
	}
	return nil
}
