package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/unijobs/unijobs/pkg/config"
	"github.com/unijobs/unijobs/pkg/storage"
	"github.com/urfave/cli/v3"
)

// InitCommand creates the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create the configuration file and initialize the database",
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(c.String("config"))
		},
	}
}

func initConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Configuration file already exists: %s\n", configPath)
		return nil
	}

	cfg, err := config.GetDefaultConfig()
	if err != nil {
		return fmt.Errorf("building default config: %w", err)
	}

	if err := cfg.SaveTemplateConfig(configPath); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	fmt.Printf("Created configuration file: %s\n", configPath)

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer closeStore(store)

	fmt.Printf("Initialized database: %s\n", cfg.DBPath)
	return nil
}
