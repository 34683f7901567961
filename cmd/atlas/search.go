package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"parcelhq/atlas/pkg/cli"
	"parcelhq/atlas/pkg/provider"
	"parcelhq/atlas/pkg/search"
	"parcelhq/atlas/pkg/search/normalize"
)

var searchFlags struct {
	owner        string
	criteria     string
	criteriaFile string
	template     string
	saveTemplate string
	autoNotify   bool
	addrContains string
	from         string
	until        string
	limit        int
	offset       int
	output       string
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run and manage recorded property searches",
	Long: `Run property searches and manage the recorded history.

Every executed search is persisted as an immutable record: the criteria,
the normalized results and the creation time. Records never change after
creation; history only shrinks through explicit deletion or retention
pruning.

Examples:
  # Run a search and record the outcome
  atlas search run --owner analyst-1 --criteria '{"city":"Fort Worth","state":"TX"}'

  # Run a saved template by name
  atlas search run --owner analyst-1 --template "fw-duplexes"

  # List history filtered by address substring
  atlas search list --owner analyst-1 --address-contains "oak"

  # Delete several records at once
  atlas search delete --owner analyst-1 id1 id2 id3`,
}

var searchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a property search and record the result",
	Long: `Execute a property search against the configured provider and
persist the outcome.

Criteria come from --criteria (inline JSON), --criteria-file, or a saved
template named with --template. With --save-template the criteria are also
stored as a new template before the search runs.`,
	RunE: runSearch,
}

var searchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded searches",
	Long: `List an owner's recorded searches, newest first.

Filters:
  --address-contains  case-insensitive substring match on result addresses
  --from, --until     inclusive CreatedAt bounds (RFC3339)
  --limit, --offset   pagination`,
	RunE: listSearches,
}

var searchShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded search in full",
	Args:  cobra.ExactArgs(1),
	RunE:  showSearch,
}

var searchCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count recorded searches matching a filter",
	RunE:  countSearches,
}

var searchDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete recorded searches",
	Long: `Delete one or more recorded searches.

With multiple ids the deletion is best-effort: every id is attempted, and
a partial failure reports exactly which ids were deleted and which were
not. Records deleted before a failure stay deleted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: deleteSearches,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchRunCmd, searchListCmd, searchShowCmd, searchCountCmd, searchDeleteCmd)

	searchCmd.PersistentFlags().StringVar(&searchFlags.owner, "owner", "", "owner id (required)")

	searchRunCmd.Flags().StringVar(&searchFlags.criteria, "criteria", "", "search criteria as inline JSON")
	searchRunCmd.Flags().StringVar(&searchFlags.criteriaFile, "criteria-file", "", "file containing search criteria JSON")
	searchRunCmd.Flags().StringVar(&searchFlags.template, "template", "", "run a saved template by name")
	searchRunCmd.Flags().StringVar(&searchFlags.saveTemplate, "save-template", "", "also save the criteria as a template with this name")
	searchRunCmd.Flags().BoolVar(&searchFlags.autoNotify, "auto-notify", false, "enable auto-notify on the saved template")

	for _, cmd := range []*cobra.Command{searchListCmd, searchCountCmd} {
		cmd.Flags().StringVar(&searchFlags.addrContains, "address-contains", "", "filter by address substring")
		cmd.Flags().StringVar(&searchFlags.from, "from", "", "filter by creation time lower bound (RFC3339)")
		cmd.Flags().StringVar(&searchFlags.until, "until", "", "filter by creation time upper bound (RFC3339)")
	}
	searchListCmd.Flags().IntVar(&searchFlags.limit, "limit", 0, "max results (0 = no limit)")
	searchListCmd.Flags().IntVar(&searchFlags.offset, "offset", 0, "pagination offset")
	searchListCmd.Flags().StringVar(&searchFlags.output, "output", "table", "output format: table, json")
	searchShowCmd.Flags().StringVar(&searchFlags.output, "output", "json", "output format: json, text")
}

func requireOwner() error {
	if searchFlags.owner == "" {
		return cli.NewConfigError("owner", "the --owner flag is required")
	}
	return nil
}

// searchFilter builds a search.Filter from the shared filter flags.
func searchFilter() (*search.Filter, error) {
	filter := &search.Filter{
		AddressContains: searchFlags.addrContains,
		Limit:           searchFlags.limit,
		Offset:          searchFlags.offset,
	}
	if searchFlags.from != "" {
		t, err := time.Parse(time.RFC3339, searchFlags.from)
		if err != nil {
			return nil, fmt.Errorf("invalid --from time: %w", err)
		}
		filter.From = &t
	}
	if searchFlags.until != "" {
		t, err := time.Parse(time.RFC3339, searchFlags.until)
		if err != nil {
			return nil, fmt.Errorf("invalid --until time: %w", err)
		}
		filter.Until = &t
	}
	return filter, nil
}

// loadCriteria resolves criteria from the inline flag or a file.
func loadCriteria() (map[string]any, error) {
	raw := searchFlags.criteria
	if raw == "" && searchFlags.criteriaFile != "" {
		data, err := os.ReadFile(searchFlags.criteriaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read criteria file: %w", err)
		}
		raw = string(data)
	}
	if raw == "" {
		return nil, cli.NewConfigError("criteria", "one of --criteria, --criteria-file or --template is required")
	}

	var criteria map[string]any
	if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
		return nil, fmt.Errorf("invalid criteria JSON: %w", err)
	}
	return criteria, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireOwner(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("search run", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Resolve criteria, from a template or from the flags.
	var criteria map[string]any
	var templateID string
	if searchFlags.template != "" {
		templates, err := store.ListTemplates(ctx, searchFlags.owner)
		if err != nil {
			return cli.NewCommandError("search run", err)
		}
		for _, t := range templates {
			if strings.EqualFold(t.Name, searchFlags.template) {
				criteria = t.Criteria
				templateID = t.ID
				break
			}
		}
		if templateID == "" {
			return cli.NewCommandError("search run",
				search.NewNotFoundError("template", searchFlags.owner, searchFlags.template))
		}
	} else {
		criteria, err = loadCriteria()
		if err != nil {
			return err
		}
	}

	if searchFlags.saveTemplate != "" {
		if _, err := store.SaveTemplate(ctx, searchFlags.owner, searchFlags.saveTemplate, criteria, searchFlags.autoNotify); err != nil {
			return cli.NewCommandError("search run", err)
		}
	}

	client := provider.NewHTTPClient(provider.Config{
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		MaxQueries: cfg.Provider.MaxQueries,
		Timeout:    cfg.Provider.Timeout,
	})

	raw, err := client.Search(ctx, searchFlags.owner, criteria)
	if err != nil {
		return cli.NewCommandError("search run", err)
	}
	hits := normalize.Hits(raw)

	record, err := store.RecordSearch(ctx, searchFlags.owner, criteria, hits)
	if err != nil {
		return cli.NewCommandError("search run", err)
	}
	search.NewMetrics().ObserveSearchRecorded(searchFlags.owner)

	if templateID != "" {
		if err := store.TouchTemplate(ctx, searchFlags.owner, templateID, len(hits)); err != nil {
			return cli.NewCommandError("search run", err)
		}
	}

	fmt.Printf("Recorded search %s with %d results\n", record.ID, len(record.Results))
	if remaining := client.Remaining(searchFlags.owner); remaining >= 0 {
		fmt.Printf("Provider queries remaining: %d\n", remaining)
	}
	return nil
}

func listSearches(cmd *cobra.Command, args []string) error {
	if err := requireOwner(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("search list", err)
	}
	defer store.Close()

	filter, err := searchFilter()
	if err != nil {
		return err
	}

	records, err := store.ListSearches(context.Background(), searchFlags.owner, filter)
	if err != nil {
		return cli.NewCommandError("search list", err)
	}

	if searchFlags.output == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, records)
	}

	table := &cli.Table{Headers: []string{"ID", "CREATED", "RESULTS", "CRITERIA"}}
	for _, record := range records {
		criteria, _ := json.Marshal(record.Criteria)
		table.Append(
			record.ID,
			record.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(len(record.Results)),
			string(criteria),
		)
	}
	return cli.NewFormatter(cli.FormatTable).FormatTo(os.Stdout, table)
}

func showSearch(cmd *cobra.Command, args []string) error {
	if err := requireOwner(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("search show", err)
	}
	defer store.Close()

	record, err := store.GetSearch(context.Background(), searchFlags.owner, args[0])
	if err != nil {
		return cli.NewCommandError("search show", err)
	}

	return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, record)
}

func countSearches(cmd *cobra.Command, args []string) error {
	if err := requireOwner(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("search count", err)
	}
	defer store.Close()

	filter, err := searchFilter()
	if err != nil {
		return err
	}

	count, err := store.CountSearches(context.Background(), searchFlags.owner, filter)
	if err != nil {
		return cli.NewCommandError("search count", err)
	}

	fmt.Println(count)
	return nil
}

func deleteSearches(cmd *cobra.Command, args []string) error {
	if err := requireOwner(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("search delete", err)
	}
	defer store.Close()

	metrics := search.NewMetrics()
	succeeded, err := search.BulkDelete(context.Background(), store, searchFlags.owner, args)
	for range succeeded {
		metrics.ObserveDelete()
	}
	if err != nil {
		var partial *search.PartialFailureError
		if errors.As(err, &partial) {
			fmt.Printf("Deleted %d of %d records\n", len(partial.Succeeded), len(args))
			for _, item := range partial.Failed {
				fmt.Printf("  failed: %s: %v\n", item.ID, item.Err)
			}
		}
		return cli.NewCommandError("search delete", err)
	}

	fmt.Printf("Deleted %d record(s)\n", len(succeeded))
	return nil
}
