// Package cmd implements the unijobs CLI commands.
package cmd

import (
	"fmt"

	"github.com/unijobs/unijobs/pkg/config"
	"github.com/unijobs/unijobs/pkg/storage"
)

// openStore loads the configuration and opens the offer database it points
// at, creating and migrating it if needed.
func openStore(configPath string) (*config.Config, *storage.Store, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	return cfg, store, nil
}

func closeStore(store *storage.Store) {
	if err := store.Close(); err != nil {
		fmt.Printf("Warning: failed to close store: %v\n", err)
	}
}
