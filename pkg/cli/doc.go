/*
Package cli provides command-line interface utilities for atlas.

The cli package includes output formatters and common CLI helpers used by
the atlas command.

Output Formatting:

Command results can be rendered as plain text, JSON or an aligned table:

	formatter := cli.NewFormatter(cli.FormatTable)
	table := &cli.Table{Headers: []string{"ID", "CREATED", "RESULTS"}}
	table.Append(record.ID, record.CreatedAt.Format(time.RFC3339), strconv.Itoa(len(record.Results)))
	if err := formatter.FormatTo(os.Stdout, table); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
