package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// OptimizeCommand creates the optimize command
func OptimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Database optimization and maintenance commands",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Run integrity checks on the database",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "quick",
						Usage: "Skip deep FTS5-specific integrity checks",
						Value: false,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return checkDatabase(c.String("config"), !c.Bool("quick"))
				},
			},
			{
				Name:  "fts-rebuild",
				Usage: "Rebuild the FTS5 index",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Rebuild without checking first",
						Value: false,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return rebuildFTS(c.String("config"), c.Bool("force"))
				},
			},
			{
				Name:  "analyze",
				Usage: "Run ANALYZE to update query planner statistics",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c.String("config"), "ANALYZE", func(s storeMaintainer) error {
						return s.Analyze()
					})
				},
			},
			{
				Name:  "vacuum",
				Usage: "Run VACUUM to defragment the database",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c.String("config"), "VACUUM", func(s storeMaintainer) error {
						return s.Vacuum()
					})
				},
			},
			{
				Name:  "checkpoint",
				Usage: "Run WAL checkpoint to flush changes",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c.String("config"), "WAL checkpoint", func(s storeMaintainer) error {
						return s.WALCheckpoint()
					})
				},
			},
			{
				Name:  "all",
				Usage: "Run all optimization operations (analyze, checkpoint, optimize)",
				Action: func(ctx context.Context, c *cli.Command) error {
					return optimizeAll(c.String("config"))
				},
			},
		},
	}
}

type storeMaintainer interface {
	Optimize() error
	Analyze() error
	Vacuum() error
	WALCheckpoint() error
	IntegrityCheck() error
	FTSIntegrityCheck() error
	FTSRebuild() error
}

func withStore(configPath, label string, fn func(storeMaintainer) error) error {
	_, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer closeStore(store)

	fmt.Printf("Running %s...\n", label)
	if err := fn(store); err != nil {
		return fmt.Errorf("%s failed: %w", label, err)
	}
	fmt.Printf("%s completed successfully\n", label)
	return nil
}

func optimizeAll(configPath string) error {
	_, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer closeStore(store)

	fmt.Println("Running PRAGMA optimize...")
	if err := store.Optimize(); err != nil {
		return fmt.Errorf("optimizing: %w", err)
	}

	fmt.Println("Running ANALYZE...")
	if err := store.Analyze(); err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}

	fmt.Println("Running WAL checkpoint...")
	if err := store.WALCheckpoint(); err != nil {
		return fmt.Errorf("checkpointing: %w", err)
	}

	fmt.Println("All optimization operations completed successfully")
	return nil
}

func checkDatabase(configPath string, deepFTS bool) error {
	_, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer closeStore(store)

	fmt.Print("Running integrity check... ")
	if err := store.IntegrityCheck(); err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Println("OK")

	if deepFTS {
		fmt.Print("Running FTS integrity check... ")
		if err := store.FTSIntegrityCheck(); err != nil {
			fmt.Println("FAILED")
			fmt.Println("To fix FTS index corruption, run: unijobs optimize fts-rebuild")
			return err
		}
		fmt.Println("OK")
	}

	return nil
}

func rebuildFTS(configPath string, force bool) error {
	_, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if !force {
		if err := store.FTSIntegrityCheck(); err == nil {
			fmt.Println("FTS index is healthy, no rebuild needed (use --force to rebuild anyway)")
			return nil
		}
	}

	fmt.Print("Rebuilding FTS index... ")
	if err := store.FTSRebuild(); err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Println("OK")
	return nil
}
