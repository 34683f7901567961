package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"parcelhq/atlas/pkg/cli"
	"parcelhq/atlas/pkg/config"
	"parcelhq/atlas/pkg/search"
	"parcelhq/atlas/pkg/search/export"
)

var exportFlags struct {
	owner        string
	id           string
	format       string
	output       string
	pretty       bool
	generatedAt  string
	bulk         bool
	addrContains string
	from         string
	until        string
	limit        int
	offset       int
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded searches",
	Long: `Export recorded searches in one of four formats.

Formats:
  json    lossless structured data; the only format that round-trips
  csv     one flat table, one row per property hit
  xlsx    multi-sheet workbook with long-form tax history sheets
  report  paginated PDF document (single search only)

A single export names one record with --id. A bulk export with --bulk
merges every record matching the filter flags into one output; tabular
rows gain a source_search_id column so provenance survives the merge.

Examples:
  # Export one search as JSON
  atlas export --owner analyst-1 --id <record-id> --format json -o search.json

  # Export a month of history as one workbook
  atlas export --owner analyst-1 --bulk \
      --from 2026-07-01T00:00:00Z --until 2026-08-01T00:00:00Z \
      --format xlsx -o july.xlsx`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFlags.owner, "owner", "", "owner id (required)")
	exportCmd.Flags().StringVar(&exportFlags.id, "id", "", "record id for a single export")
	exportCmd.Flags().StringVar(&exportFlags.format, "format", "", "export format: json, csv, xlsx, report (default from config)")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportFlags.pretty, "pretty", false, "indent JSON output")
	exportCmd.Flags().StringVar(&exportFlags.generatedAt, "generated-at", "", "report generation timestamp (RFC3339, default: now)")
	exportCmd.Flags().BoolVar(&exportFlags.bulk, "bulk", false, "export every record matching the filter flags")
	exportCmd.Flags().StringVar(&exportFlags.addrContains, "address-contains", "", "bulk filter: address substring")
	exportCmd.Flags().StringVar(&exportFlags.from, "from", "", "bulk filter: creation time lower bound (RFC3339)")
	exportCmd.Flags().StringVar(&exportFlags.until, "until", "", "bulk filter: creation time upper bound (RFC3339)")
	exportCmd.Flags().IntVar(&exportFlags.limit, "limit", 0, "bulk filter: max records (0 = no limit)")
	exportCmd.Flags().IntVar(&exportFlags.offset, "offset", 0, "bulk filter: pagination offset")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFlags.owner == "" {
		return cli.NewConfigError("owner", "the --owner flag is required")
	}
	if !exportFlags.bulk && exportFlags.id == "" {
		return cli.NewConfigError("id", "one of --id or --bulk is required")
	}
	if exportFlags.bulk && exportFlags.id != "" {
		return cli.NewConfigError("id", "--id and --bulk are mutually exclusive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	format := search.Format(exportFlags.format)
	if exportFlags.format == "" {
		format = search.Format(cfg.Export.DefaultFormat)
	}
	if !format.Valid() {
		return cli.NewConfigError("format",
			fmt.Sprintf("unknown format %q (supported: %v)", exportFlags.format, search.Formats))
	}

	pretty := exportFlags.pretty || cfg.Export.PrettyJSON

	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("export", err)
	}
	defer store.Close()

	usageLog, err := openUsage(cfg)
	if err != nil {
		return cli.NewCommandError("export", err)
	}
	defer usageLog.Close()

	var out io.Writer = os.Stdout
	if exportFlags.output != "" {
		f, err := os.Create(exportFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	ctx := context.Background()

	if exportFlags.bulk {
		err = runBulkExport(ctx, cfg, store, format, pretty, out)
	} else {
		err = runSingleExport(ctx, store, format, pretty, out)
	}
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	if err := usageLog.Record(ctx, exportFlags.owner, format, time.Now().UTC()); err != nil {
		return cli.NewCommandError("export", fmt.Errorf("failed to record export usage: %w", err))
	}
	search.NewMetrics().ObserveExport(format)

	if exportFlags.output != "" {
		fmt.Printf("Exported to %s\n", exportFlags.output)
	}
	return nil
}

func runSingleExport(ctx context.Context, store search.Store, format search.Format, pretty bool, out io.Writer) error {
	record, err := store.GetSearch(ctx, exportFlags.owner, exportFlags.id)
	if err != nil {
		return err
	}

	var exporter search.Exporter
	switch format {
	case search.FormatJSON:
		exporter = export.NewJSONExporter(pretty)
	case search.FormatCSV:
		exporter = export.NewCSVExporter(true)
	case search.FormatWorkbook:
		exporter = export.NewWorkbookExporter()
	case search.FormatReport:
		generated := time.Now().UTC()
		if exportFlags.generatedAt != "" {
			generated, err = time.Parse(time.RFC3339, exportFlags.generatedAt)
			if err != nil {
				return fmt.Errorf("invalid --generated-at time: %w", err)
			}
		}
		exporter = export.NewReportExporter(generated)
	}

	return exporter.Export(ctx, record, out)
}

func runBulkExport(ctx context.Context, cfg *config.Config, store search.Store, format search.Format, pretty bool, out io.Writer) error {
	filter := &search.Filter{
		AddressContains: exportFlags.addrContains,
		Limit:           exportFlags.limit,
		Offset:          exportFlags.offset,
	}
	if exportFlags.from != "" {
		t, err := time.Parse(time.RFC3339, exportFlags.from)
		if err != nil {
			return fmt.Errorf("invalid --from time: %w", err)
		}
		filter.From = &t
	}
	if exportFlags.until != "" {
		t, err := time.Parse(time.RFC3339, exportFlags.until)
		if err != nil {
			return fmt.Errorf("invalid --until time: %w", err)
		}
		filter.Until = &t
	}

	records, err := store.ListSearches(ctx, exportFlags.owner, filter)
	if err != nil {
		return err
	}

	bulk := export.NewBulkExporter()
	bulk.MaxRecords = cfg.Export.MaxBulkRecords
	bulk.PrettyJSON = pretty
	return bulk.Export(ctx, records, format, out)
}
