// Command inspect is a dry run over the data directory: it lists every
// discovered file with its resolved client, broker, and detected kind, so
// misnamed files can be found before a consolidation run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rahulprajapat123/investment-manager/internal/config"
	"github.com/rahulprajapat123/investment-manager/internal/detector"
	"github.com/rahulprajapat123/investment-manager/internal/infrastructure"
	"github.com/rahulprajapat123/investment-manager/internal/pipeline"
	"github.com/rahulprajapat123/investment-manager/internal/resolver"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataDir := flag.String("data", "", "data directory to inspect (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx := context.Background()
	paths, err := pipeline.FilesystemDiscovery{}.Discover(ctx, cfg.Paths.DataDir)
	if err != nil {
		return err
	}

	det := detector.New(logger)
	res := resolver.New(logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLIENT\tBROKER\tKIND\tPATH")

	for _, path := range paths {
		kind := det.DetectKind(ctx, path)
		identity, err := res.Resolve(ctx, path)
		if err != nil {
			fmt.Fprintf(w, "?\t?\t%s\t%s\n", kind, path)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", identity.ClientID, identity.Broker, kind, path)
	}

	return w.Flush()
}
