package main

import (
	"fmt"
	"strings"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	stations := deps.Index.ListStations(c.Prefecture, c.Line, c.Limit)

	if len(stations) == 0 {
		fmt.Fprintln(deps.Stdout, "No stations stored. Use 'jptransit crawl' to build the directory.")
		return nil
	}

	for _, st := range stations {
		lines := st.LineName
		if len(st.AllLines) > 0 {
			lines = strings.Join(st.AllLines, ", ")
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", st.Name, st.Prefecture, lines)
	}
	return nil
}
