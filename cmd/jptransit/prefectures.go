package main

import "fmt"

// Run executes the prefectures command.
func (c *PrefecturesCmd) Run(deps *Dependencies) error {
	prefectures := deps.Index.AllPrefectures()

	if len(prefectures) == 0 {
		fmt.Fprintln(deps.Stdout, "No stations stored. Use 'jptransit crawl' to build the directory.")
		return nil
	}

	for _, name := range prefectures {
		fmt.Fprintf(deps.Stdout, "%s  %d stations\n", name, len(deps.Index.SearchByPrefecture(name)))
	}
	return nil
}
