package main

import (
	"fmt"
	"time"

	jptransit "github.com/anhlt/jp-transit-search"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	if c.MaxLines > 0 {
		deps.Crawler.MaxLinesPerPrefecture = c.MaxLines
	}

	if c.Resume {
		fmt.Fprintln(deps.Stdout, "Resuming crawl from the saved checkpoint...")
	} else {
		fmt.Fprintln(deps.Stdout, "Starting a fresh crawl of all 47 prefectures...")
	}

	result, err := deps.Crawler.Crawl(deps.Ctx, c.Resume)
	if err != nil {
		if jptransit.ErrorCode(err) == jptransit.ECANCELED {
			fmt.Fprintf(deps.Stdout, "Interrupted. %d stations saved; run 'jptransit crawl --resume' to continue.\n",
				result.Stations)
			return nil
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", jptransit.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Done in %s: %d stations across %d prefectures (%d lines).\n",
		result.Duration.Round(time.Second), result.Stations, result.Prefectures, result.Lines)
	if result.Duplicates > 0 {
		fmt.Fprintf(deps.Stdout, "Filtered %d duplicates.\n", result.Duplicates)
	}
	if result.Errors > 0 {
		fmt.Fprintf(deps.Stdout, "%d pages failed; run 'jptransit crawl --resume' to retry the gaps.\n",
			result.Errors)
	}
	return nil
}
