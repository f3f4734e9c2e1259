package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/unijobs/unijobs/pkg/core"
	"github.com/urfave/cli/v3"
)

// ImportCommand creates the import command
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Bulk import offers from a JSON file",
		ArgsUsage: "<file.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "keep-going",
				Usage: "Continue past offers that fail validation",
				Value: false,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one JSON file argument")
			}
			return importOffers(c.String("config"), c.Args().First(), c.Bool("keep-going"))
		},
	}
}

// importOffers loads a JSON array of offers and stores them one by one.
// Identifiers are assigned by the store; ids present in the file are ignored.
func importOffers(configPath, filePath string, keepGoing bool) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filePath, err)
	}

	var offers []core.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		return fmt.Errorf("parsing %s: %w", filePath, err)
	}

	_, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer closeStore(store)

	imported := 0
	failed := 0
	for i := range offers {
		offers[i].ID = ""
		if err := store.Create(&offers[i]); err != nil {
			failed++
			if !keepGoing {
				return fmt.Errorf("importing offer %d (%q): %w", i, offers[i].Title, err)
			}
			fmt.Printf("Skipping offer %d (%q): %v\n", i, offers[i].Title, err)
			continue
		}
		imported++
	}

	fmt.Printf("Imported %d offer(s)", imported)
	if failed > 0 {
		fmt.Printf(", skipped %d", failed)
	}
	fmt.Println()
	return nil
}
