package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/geospice/internal/cli"
	"github.com/Veraticus/geospice/internal/suggest"
	"github.com/spf13/cobra"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest a category for an expense",
		Long: `Suggest a category for an expense at the given location, using the expenses
recorded within the configured radius as context.

With --remote the request is sent to a running 'geospice serve' instead of
calling the model directly; stored history is sent along with it.`,
		Example: `  geospice suggest --lat 48.2082 --lng 16.3738 --amount 12.50
  geospice suggest --lat 48.2082 --lng 16.3738 --amount 12.50 --remote http://localhost:8080`,
		RunE: runSuggest,
	}

	addQueryFlags(cmd)
	cmd.Flags().String("remote", "", "base URL of a geospice server")
	cmd.Flags().Int("retries", 3, "attempts per remote request")
	cmd.Flags().Duration("timeout", 60*time.Second, "timeout per remote request")
	cmd.Flags().Bool("verbose", false, "show tool calls made by the model")

	return cmd
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	q, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}
	remote, _ := cmd.Flags().GetString("remote")
	retries, _ := cmd.Flags().GetInt("retries")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	verbose, _ := cmd.Flags().GetBool("verbose")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	history, err := store.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("failed to load expense history: %w", err)
	}

	var report suggest.Report
	if remote != "" {
		report, err = newRemoteClient(remote, timeout, retries).Suggest(ctx, q, history)
	} else {
		var engine *suggest.Engine
		if engine, err = newEngine(); err != nil {
			return err
		}
		report, err = engine.SuggestForLocation(ctx, q, history)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderSuggestion(report.Suggestion, report.Outcome))
	fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("%s %d nearby expenses considered", cli.PinIcon, report.Nearby)))
	if verbose {
		for _, inv := range report.Invocations {
			line := fmt.Sprintf("  %s(%s) → %s", inv.Name, inv.Arguments, inv.Result)
			if inv.Error != "" {
				line = fmt.Sprintf("  %s(%s) ✗ %s", inv.Name, inv.Arguments, inv.Error)
			}
			fmt.Fprintln(out, cli.SubtleStyle.Render(line))
		}
	}
	return nil
}
