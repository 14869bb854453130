package main

import (
	"fmt"
	"math"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRetrieveCmd() *cobra.Command {
	var (
		docs []string
		topK int
	)

	cmd := &cobra.Command{
		Use:   "retrieve QUERY",
		Short: "Show the context a question would receive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(docs)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("--docs is required")
			}
			if topK < 0 {
				return fmt.Errorf("top-k must not be negative, got %d", topK)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			entries := a.Retriever.Retrieve(ctx, args[0], ids, topK)
			if len(entries) == 0 {
				fmt.Fprintln(out, "no context found")
				return nil
			}
			for i, entry := range entries {
				fmt.Fprintf(out, "%d. %s\n%s\n\n", i+1, formatScore(entry.Similarity), entry.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&docs, "docs", nil, "Document ids, comma separated")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Passages to return (0 uses the configured default)")
	return cmd
}

func formatScore(score float64) string {
	switch {
	case math.IsNaN(score):
		return color.New(color.Faint).Sprint("score n/a")
	case score >= 0.8:
		return color.GreenString("score %.3f", score)
	case score >= 0.5:
		return color.YellowString("score %.3f", score)
	default:
		return color.RedString("score %.3f", score)
	}
}
