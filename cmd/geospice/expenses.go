package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Veraticus/geospice/internal/cli"
	"github.com/Veraticus/geospice/internal/common"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"exp"},
		Short:   "Record and manage expenses",
	}

	cmd.AddCommand(addExpenseCmd())
	cmd.AddCommand(listExpensesCmd())
	cmd.AddCommand(deleteExpenseCmd())
	cmd.AddCommand(importExpensesCmd())

	return cmd
}

func addExpenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Long: `Record an expense. Without --category a suggestion is computed from nearby
history and offered in a picker; --yes accepts it without asking.`,
		RunE: runAddExpense,
	}

	addQueryFlags(cmd)
	cmd.Flags().String("category", "", "expense category (default: suggested)")
	cmd.Flags().String("label", "", "free-text label, e.g. the shop name")
	cmd.Flags().BoolP("yes", "y", false, "accept the suggested category without prompting")

	return cmd
}

func runAddExpense(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	q, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}
	if q.DateTime == "" {
		q.DateTime = model.FormatDateTime(time.Now())
	}
	categoryName, _ := cmd.Flags().GetString("category")
	label, _ := cmd.Flags().GetString("label")
	yes, _ := cmd.Flags().GetBool("yes")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var category model.Category
	if categoryName != "" {
		var ok bool
		if category, ok = model.ParseCategory(categoryName); !ok {
			return common.NewUserError(
				fmt.Sprintf("Unknown category %q; must be one of: %s", categoryName, model.JoinCategoryNames()),
				model.ErrInvalidInput)
		}
	} else {
		category, err = chooseCategory(ctx, cmd, store, q, yes)
		if err != nil {
			return err
		}
	}

	expense := model.Expense{
		Category:  category,
		Label:     label,
		DateTime:  q.DateTime,
		Amount:    q.Amount,
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
	}
	if err := store.SaveExpense(ctx, &expense); err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s%.2f as %s (%s)",
		viper.GetString("suggest.currency"), expense.Amount, expense.Category, shortID(expense.ID))))
	return nil
}

// chooseCategory suggests a category from stored history and lets the user
// confirm or override it.
func chooseCategory(ctx context.Context, cmd *cobra.Command, store *storage.SQLiteStorage, q model.Query, yes bool) (model.Category, error) {
	history, err := store.ListExpenses(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load expense history: %w", err)
	}

	engine, err := newEngine()
	if err != nil {
		return "", err
	}
	report, err := engine.SuggestForLocation(ctx, q, history)
	if err != nil {
		return "", err
	}

	if yes {
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSuggestion(report.Suggestion, report.Outcome))
		return report.Suggestion.Category, nil
	}

	category, chosen, err := cli.PickCategory(cmd.InOrStdin(), cmd.OutOrStdout(), report.Suggestion, report.Outcome)
	if err != nil {
		return "", err
	}
	if !chosen {
		return "", common.NewUserError("Canceled; nothing was recorded", context.Canceled)
	}
	return category, nil
}

func listExpensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded expenses, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			expenses, err := store.ListExpenses(ctx)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}
			if limit > 0 && len(expenses) > limit {
				expenses = expenses[:limit]
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderExpenses(expenses, viper.GetString("suggest.currency")))
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 0, "show at most this many expenses")
	return cmd
}

func deleteExpenseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteExpense(ctx, args[0]); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No expense with ID %q", args[0]), err)
				}
				return fmt.Errorf("failed to delete expense: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted expense "+args[0]))
			return nil
		},
	}
}

func importExpensesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import expenses from a JSON file",
		Long: `Import a JSON array of expenses, each with category, amount, latitude,
longitude and an RFC 3339 datetime. Use - to read from stdin. The import is
all or nothing: one invalid expense rejects the whole file.`,
		Example: `  geospice expenses import history.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			expenses, err := readExpenses(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if len(expenses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing to import"))
				return nil
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(expenses), "Importing expenses")
			err = store.SaveExpenses(ctx, expenses, func(done int) {
				_ = bar.Set(done)
			})
			if err != nil {
				return common.NewUserError("Import failed; nothing was written", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d expenses", len(expenses))))
			return nil
		},
	}
}

// readExpenses decodes a JSON array of expenses from path, or from stdin
// when path is "-".
func readExpenses(stdin io.Reader, path string) ([]model.Expense, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var expenses []model.Expense
	if err := json.NewDecoder(r).Decode(&expenses); err != nil {
		return nil, common.NewUserError("Expected a JSON array of expenses", err)
	}
	return expenses, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
