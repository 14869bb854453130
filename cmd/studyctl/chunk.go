package main

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"studymate/internal/retrieval"
)

func newChunkCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "chunk FILE",
		Short: "Print the chunks a text file would be indexed as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size <= 0 {
				return fmt.Errorf("size must be positive, got %d", size)
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			chunks := retrieval.Chunk(string(raw), size)
			out := cmd.OutOrStdout()
			header := color.New(color.FgCyan, color.Bold)
			for i, chunk := range chunks {
				header.Fprintf(out, "--- chunk %d/%d (%d chars)\n", i+1, len(chunks), utf8.RuneCountInString(chunk))
				fmt.Fprintln(out, chunk)
			}
			fmt.Fprintf(out, "%d chunks\n", len(chunks))
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", retrieval.DefaultChunkSize, "Maximum chunk length in characters")
	return cmd
}
