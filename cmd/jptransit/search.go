package main

import (
	"fmt"

	"github.com/anhlt/jp-transit-search/search"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	var results []search.Result
	switch {
	case c.Exact:
		results = deps.Index.SearchExact(c.Query)
	case c.Fuzzy:
		results = deps.Index.FuzzySearch(c.Query)
	default:
		results = deps.Index.SearchByName(c.Query)
	}

	if len(results) == 0 {
		fmt.Fprintf(deps.Stdout, "No stations found for %q.\n", c.Query)
		return nil
	}
	if c.Limit > 0 && len(results) > c.Limit {
		results = results[:c.Limit]
	}

	for _, r := range results {
		st := r.Station
		line := st.LineName
		if line == "" {
			line = "-"
		}
		fmt.Fprintf(deps.Stdout, "%3d  %s  %s  %s\n", r.Score, st.Name, st.Prefecture, line)
	}
	return nil
}
