package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dataagent/dataagent/internal/config"
	"github.com/dataagent/dataagent/internal/observability"
	"github.com/dataagent/dataagent/internal/snapshot"
	s3store "github.com/dataagent/dataagent/internal/storage/s3"
	"github.com/dataagent/dataagent/internal/store"
)

func main() {
	name := flag.String("name", "", "snapshot name; defaults to DATAAGENT_QUERY_SNAPSHOT")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall export timeout")
	flag.Parse()

	cfg, err := config.LoadFromEnv("dataagent-snapshot")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	snapshotName := *name
	if snapshotName == "" {
		snapshotName = cfg.Query.Snapshot
	}
	if snapshotName == "" {
		fmt.Fprintln(os.Stderr, "-name or DATAAGENT_QUERY_SNAPSHOT is required")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stderr)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	objectStore, err := s3store.New(ctx, cfg.ObjectStore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "object store error: %v\n", err)
		os.Exit(1)
	}
	exporter, err := snapshot.NewExporter(db, objectStore, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "exporter error: %v\n", err)
		os.Exit(1)
	}

	files, err := exporter.Export(ctx, snapshotName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
	for _, file := range files {
		fmt.Printf("%s\t%s\t%d bytes\n", file.TableName, file.ObjectPath, file.FileSizeBytes)
	}
}
