package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"parcelhq/atlas/pkg/cli"
	"parcelhq/atlas/pkg/search"
	"parcelhq/atlas/pkg/search/analytics"
)

var statsFlags struct {
	owner  string
	bucket string
	top    int
	output string
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Search history statistics",
	Long: `Compute statistics over an owner's search history and export usage.

Subcommands:
  activity  searches per time bucket (day, week or month)
  criteria  most frequently used criteria combinations
  formats   export counts per output format

Examples:
  atlas stats activity --owner analyst-1 --bucket week
  atlas stats criteria --owner analyst-1 --top 5
  atlas stats formats --owner analyst-1`,
}

var statsActivityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Searches per time bucket",
	RunE:  statsActivity,
}

var statsCriteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Most frequent criteria combinations",
	RunE:  statsCriteria,
}

var statsFormatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Export counts per output format",
	RunE:  statsFormats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.AddCommand(statsActivityCmd, statsCriteriaCmd, statsFormatsCmd)

	statsCmd.PersistentFlags().StringVar(&statsFlags.owner, "owner", "", "owner id (required)")
	statsCmd.PersistentFlags().StringVar(&statsFlags.output, "output", "table", "output format: table, json")

	statsActivityCmd.Flags().StringVar(&statsFlags.bucket, "bucket", "day", "bucket granularity: day, week, month")
	statsCriteriaCmd.Flags().IntVar(&statsFlags.top, "top", 10, "number of criteria combinations to show")
}

// openAggregator wires an Aggregator from the configured store and usage log.
// The returned closer releases both.
func openAggregator() (*analytics.Aggregator, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	usageLog, err := openUsage(cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	closer := func() {
		usageLog.Close()
		store.Close()
	}
	return analytics.New(store, usageLog), closer, nil
}

func statsActivity(cmd *cobra.Command, args []string) error {
	if statsFlags.owner == "" {
		return cli.NewConfigError("owner", "the --owner flag is required")
	}
	agg, closer, err := openAggregator()
	if err != nil {
		return cli.NewCommandError("stats activity", err)
	}
	defer closer()

	points, err := agg.ActivityOverTime(context.Background(), statsFlags.owner,
		analytics.Bucket(statsFlags.bucket))
	if err != nil {
		return cli.NewCommandError("stats activity", err)
	}

	if statsFlags.output == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, points)
	}

	table := &cli.Table{Headers: []string{"BUCKET START", "SEARCHES"}}
	for _, p := range points {
		table.Append(p.Start.Format(time.RFC3339), strconv.FormatInt(p.Count, 10))
	}
	return cli.NewFormatter(cli.FormatTable).FormatTo(os.Stdout, table)
}

func statsCriteria(cmd *cobra.Command, args []string) error {
	if statsFlags.owner == "" {
		return cli.NewConfigError("owner", "the --owner flag is required")
	}
	agg, closer, err := openAggregator()
	if err != nil {
		return cli.NewCommandError("stats criteria", err)
	}
	defer closer()

	ranked, err := agg.MostFrequentCriteria(context.Background(), statsFlags.owner, statsFlags.top)
	if err != nil {
		return cli.NewCommandError("stats criteria", err)
	}

	if statsFlags.output == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, ranked)
	}

	table := &cli.Table{Headers: []string{"COUNT", "LAST USED", "CRITERIA"}}
	for _, c := range ranked {
		criteria, _ := json.Marshal(c.Criteria)
		table.Append(strconv.FormatInt(c.Count, 10), c.LastUsed.Format(time.RFC3339), string(criteria))
	}
	return cli.NewFormatter(cli.FormatTable).FormatTo(os.Stdout, table)
}

func statsFormats(cmd *cobra.Command, args []string) error {
	if statsFlags.owner == "" {
		return cli.NewConfigError("owner", "the --owner flag is required")
	}
	agg, closer, err := openAggregator()
	if err != nil {
		return cli.NewCommandError("stats formats", err)
	}
	defer closer()

	counts, err := agg.FormatUsage(context.Background(), statsFlags.owner)
	if err != nil {
		return cli.NewCommandError("stats formats", err)
	}

	if statsFlags.output == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, counts)
	}

	table := &cli.Table{Headers: []string{"FORMAT", "EXPORTS"}}
	for _, format := range search.Formats {
		table.Append(string(format), strconv.FormatInt(counts[format], 10))
	}
	return cli.NewFormatter(cli.FormatTable).FormatTo(os.Stdout, table)
}
