package main

import (
	"fmt"

	"github.com/Veraticus/geospice/internal/cli"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the expense categories",
		Long:  `List the fixed category vocabulary suggestions are drawn from. Other is the fallback.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.TitleStyle.Render("Categories"))
			for i, c := range model.Categories() {
				line := fmt.Sprintf("%2d. %s", i+1, c)
				if c == model.CategoryOther {
					line += cli.SubtleStyle.Render("  (fallback)")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
