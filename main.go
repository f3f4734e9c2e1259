package main

import (
	"context"
	"os"

	"github.com/unijobs/unijobs/cmd"
	"github.com/unijobs/unijobs/pkg/config"
	"github.com/unijobs/unijobs/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := log.ForComponent("main")

	app := &cli.Command{
		Name:  "unijobs",
		Usage: "Job offer search and publication service",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if c.Bool("debug") {
				log.SetGlobalDebug(true)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.ServeCommand(),
			cmd.SearchCommand(),
			cmd.ImportCommand(),
			cmd.StatsCommand(),
			cmd.OptimizeCommand(),
			cmd.MigrateCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.ForComponent("main").Errorf("failed to get default config path: %v", err)
		os.Exit(1)
	}
	return path
}
