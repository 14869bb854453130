package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"studymate/internal/retrieval"
)

func newReindexCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reindex [ID...]",
		Short: "Delete and rebuild the passages of documents",
		Long: `Rebuild passages synchronously. Existing passages of each document are
deleted first, then every chunk is embedded again. Chunks that fail are
reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if all == (len(ids) > 0) {
				return fmt.Errorf("pass document ids or --all")
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if all {
				if ids, err = a.Documents.ListIDs(ctx); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, id := range ids {
				doc, err := a.Documents.GetByID(ctx, id)
				if err != nil {
					return err
				}
				if doc == nil {
					color.New(color.FgYellow).Fprintf(out, "document %d not found, skipped\n", id)
					continue
				}
				if err := a.Passages.DeleteByDocumentID(ctx, id); err != nil {
					return err
				}

				total := len(retrieval.Chunk(doc.Content, a.Config.Retrieval.ChunkSize))
				bar := newProgressBar(total, fmt.Sprintf("document %d", id))
				failed := 0
				stored := a.Indexer.Run(ctx, id, doc.Content, func(_, _ int, err error) {
					if err != nil {
						failed++
					}
					_ = bar.Add(1)
				})
				_ = bar.Finish()

				summary := color.GreenString("%d/%d passages", stored, total)
				if failed > 0 {
					summary = color.RedString("%d/%d passages, %d failed", stored, total, failed)
				}
				fmt.Fprintf(out, "\ndocument %d: %s\n", id, summary)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Rebuild every document")
	return cmd
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
