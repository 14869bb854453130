package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"studymate/internal/bootstrap"
	"studymate/internal/config"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studyctl",
		Short: "Maintenance tools for the studymate service",
		Long: `studyctl inspects and repairs the retrieval data behind studymate.

It reads the same configuration as the server (CONFIG_FILE, .env and
environment variables) and talks to the database directly.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newChunkCmd(),
		newReindexCmd(),
		newRetrieveCmd(),
		newTokenCmd(),
	)
	return cmd
}

// openApp connects to the database and providers without RabbitMQ; the
// commands here do their work in-process.
func openApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.RabbitMQ.Enabled = false
	return bootstrap.Open(ctx, cfg)
}

func parseIDs(raw []string) ([]uint, error) {
	ids := make([]uint, 0, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil || id == 0 {
				return nil, fmt.Errorf("invalid document id %q", part)
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}
