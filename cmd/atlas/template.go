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
)

var templateFlags struct {
	owner        string
	name         string
	criteria     string
	criteriaFile string
	autoNotify   bool
	output       string
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage saved search templates",
	Long: `Manage saved search templates.

A template is a reusable named search definition. Names are unique per
owner, compared case-insensitively. Templates are decoupled from history:
deleting a template never touches past search records, and templates
survive retention pruning.

Examples:
  # Save a template
  atlas template save --owner analyst-1 --name "fw-duplexes" \
      --criteria '{"city":"Fort Worth","propertyType":"duplex"}'

  # Run it later
  atlas search run --owner analyst-1 --template "fw-duplexes"`,
}

var templateSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a new search template",
	RunE:  saveTemplate,
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates",
	RunE:  listTemplates,
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a saved template",
	Long: `Update a saved template's name, criteria or auto-notify flag.
Only the flags given change; everything else keeps its current value.`,
	Args: cobra.ExactArgs(1),
	RunE: updateTemplate,
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved template",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteTemplate,
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateSaveCmd, templateListCmd, templateUpdateCmd, templateDeleteCmd)

	templateCmd.PersistentFlags().StringVar(&templateFlags.owner, "owner", "", "owner id (required)")

	for _, cmd := range []*cobra.Command{templateSaveCmd, templateUpdateCmd} {
		cmd.Flags().StringVar(&templateFlags.name, "name", "", "template name")
		cmd.Flags().StringVar(&templateFlags.criteria, "criteria", "", "search criteria as inline JSON")
		cmd.Flags().StringVar(&templateFlags.criteriaFile, "criteria-file", "", "file containing search criteria JSON")
		cmd.Flags().BoolVar(&templateFlags.autoNotify, "auto-notify", false, "notify when a scheduled run finds new results")
	}
	templateListCmd.Flags().StringVar(&templateFlags.output, "output", "table", "output format: table, json")
}

func requireTemplateOwner() error {
	if templateFlags.owner == "" {
		return cli.NewConfigError("owner", "the --owner flag is required")
	}
	return nil
}

func loadTemplateCriteria() (map[string]any, error) {
	raw := templateFlags.criteria
	if raw == "" && templateFlags.criteriaFile != "" {
		data, err := os.ReadFile(templateFlags.criteriaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read criteria file: %w", err)
		}
		raw = string(data)
	}
	if raw == "" {
		return nil, nil
	}

	var criteria map[string]any
	if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
		return nil, fmt.Errorf("invalid criteria JSON: %w", err)
	}
	return criteria, nil
}

func saveTemplate(cmd *cobra.Command, args []string) error {
	if err := requireTemplateOwner(); err != nil {
		return err
	}
	if templateFlags.name == "" {
		return cli.NewConfigError("name", "the --name flag is required")
	}
	criteria, err := loadTemplateCriteria()
	if err != nil {
		return err
	}
	if criteria == nil {
		return cli.NewConfigError("criteria", "one of --criteria or --criteria-file is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("template save", err)
	}
	defer store.Close()

	template, err := store.SaveTemplate(context.Background(), templateFlags.owner,
		templateFlags.name, criteria, templateFlags.autoNotify)
	if err != nil {
		return cli.NewCommandError("template save", err)
	}

	fmt.Printf("Saved template %s (%s)\n", template.Name, template.ID)
	return nil
}

func listTemplates(cmd *cobra.Command, args []string) error {
	if err := requireTemplateOwner(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("template list", err)
	}
	defer store.Close()

	templates, err := store.ListTemplates(context.Background(), templateFlags.owner)
	if err != nil {
		return cli.NewCommandError("template list", err)
	}

	if templateFlags.output == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, templates)
	}

	table := &cli.Table{Headers: []string{"ID", "NAME", "AUTO-NOTIFY", "LAST RUN", "RESULTS"}}
	for _, t := range templates {
		lastRun := "-"
		if t.LastRun != nil {
			lastRun = t.LastRun.Format(time.RFC3339)
		}
		table.Append(t.ID, t.Name, strconv.FormatBool(t.AutoNotify), lastRun, strconv.Itoa(t.ResultsCount))
	}
	return cli.NewFormatter(cli.FormatTable).FormatTo(os.Stdout, table)
}

func updateTemplate(cmd *cobra.Command, args []string) error {
	if err := requireTemplateOwner(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("template update", err)
	}
	defer store.Close()

	ctx := context.Background()
	id := args[0]

	// Fetch the current state so unspecified flags keep their values.
	templates, err := store.ListTemplates(ctx, templateFlags.owner)
	if err != nil {
		return cli.NewCommandError("template update", err)
	}
	var current *search.SavedTemplate
	for _, t := range templates {
		if t.ID == id {
			current = t
			break
		}
	}
	if current == nil {
		return cli.NewCommandError("template update",
			search.NewNotFoundError("template", templateFlags.owner, id))
	}

	name := current.Name
	if cmd.Flags().Changed("name") {
		name = templateFlags.name
	}
	criteria := current.Criteria
	if newCriteria, err := loadTemplateCriteria(); err != nil {
		return err
	} else if newCriteria != nil {
		criteria = newCriteria
	}
	autoNotify := current.AutoNotify
	if cmd.Flags().Changed("auto-notify") {
		autoNotify = templateFlags.autoNotify
	}

	template, err := store.UpdateTemplate(ctx, templateFlags.owner, id, name, criteria, autoNotify)
	if err != nil {
		return cli.NewCommandError("template update", err)
	}

	fmt.Printf("Updated template %s (%s)\n", template.Name, template.ID)
	return nil
}

func deleteTemplate(cmd *cobra.Command, args []string) error {
	if err := requireTemplateOwner(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("template delete", err)
	}
	defer store.Close()

	if err := store.DeleteTemplate(context.Background(), templateFlags.owner, args[0]); err != nil {
		return cli.NewCommandError("template delete", err)
	}

	fmt.Printf("Deleted template %s\n", args[0])
	return nil
}
