package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/unijobs/unijobs/pkg/storage"
	"github.com/urfave/cli/v3"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show offer database statistics",
		Action: func(ctx context.Context, c *cli.Command) error {
			return showStats(c.String("config"))
		},
	}
}

func showStats(configPath string) error {
	cfg, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer closeStore(store)

	stats, err := store.GetStats(storage.FormatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	fmt.Printf("Database: %s\n", cfg.DBPath)
	fmt.Printf("Total offers:   %d\n", stats.TotalOffers)
	fmt.Printf("Current offers: %d\n", stats.CurrentOffers)
	fmt.Printf("Hidden offers:  %d\n", stats.HiddenOffers)
	if stats.OldestPublish != "" {
		fmt.Printf("Oldest publish: %s\n", stats.OldestPublish)
		fmt.Printf("Newest publish: %s\n", stats.NewestPublish)
	}
	return nil
}
