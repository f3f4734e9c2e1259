package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/unijobs/unijobs/pkg/core"
	"github.com/unijobs/unijobs/pkg/search"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search offers",
		ArgsUsage: "[search text]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "job-type",
				Usage: "Filter by job type (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "field",
				Usage: "Filter by field (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "technology",
				Usage: "Filter by technology (repeatable)",
			},
			&cli.IntFlag{
				Name:  "min-duration",
				Usage: "Minimum job duration in months",
				Value: -1,
			},
			&cli.IntFlag{
				Name:  "max-duration",
				Usage: "Maximum job duration in months",
				Value: -1,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Page size",
				Value: search.DefaultLimit,
			},
			&cli.StringFlag{
				Name:  "sort-by",
				Usage: "Sort field (publishDate, publishEndDate, title, location)",
			},
			&cli.BoolFlag{
				Name:  "descending",
				Usage: "Sort in descending order",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Continuation token from a previous page",
			},
			&cli.BoolFlag{
				Name:  "hidden",
				Usage: "Include hidden offers",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return searchOffers(c)
		},
	}
}

func searchOffers(c *cli.Command) error {
	cfg, store, err := openStore(c.String("config"))
	if err != nil {
		return err
	}
	defer closeStore(store)

	params := search.Params{
		Value: strings.Join(c.Args().Slice(), " "),
		Filters: core.SearchFilters{
			JobTypes:     c.StringSlice("job-type"),
			Fields:       c.StringSlice("field"),
			Technologies: c.StringSlice("technology"),
		},
		Limit:  c.Int("limit"),
		SortBy: c.String("sort-by"),
		Token:  c.String("token"),
		Visibility: search.Visibility{
			ShowHidden:      c.Bool("hidden"),
			ShowAdminReason: c.Bool("hidden"),
		},
	}
	if d := c.Int("min-duration"); d >= 0 {
		params.Filters.JobMinDuration = &d
	}
	if d := c.Int("max-duration"); d >= 0 {
		params.Filters.JobMaxDuration = &d
	}
	if c.IsSet("descending") {
		desc := c.Bool("descending")
		params.SortDescending = &desc
	}

	svc := search.NewService(store, cfg.MaxPageSize)
	page, err := svc.Search(params)
	if err != nil {
		return err
	}

	if len(page.Results) == 0 {
		fmt.Println("No offers found")
		return nil
	}

	for _, result := range page.Results {
		printOffer(result)
	}

	fmt.Printf("%d offer(s)\n", len(page.Results))
	if page.QueryToken != "" {
		fmt.Printf("Next page: --token %s\n", page.QueryToken)
	}
	return nil
}

func printOffer(result search.Result) {
	fmt.Printf("%s  %s\n", result.ID, result.Title)
	fmt.Printf("    %s | %s | %s\n", result.OwnerName, result.Location, result.JobType)
	fmt.Printf("    published %s until %s\n",
		result.PublishDate.Format("2006-01-02"), result.PublishEndDate.Format("2006-01-02"))
	if result.Score != nil {
		fmt.Printf("    score %.3f\n", *result.Score)
	}
	fmt.Println()
}
