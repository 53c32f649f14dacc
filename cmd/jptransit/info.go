package main

import "fmt"

// Run executes the info command.
func (c *InfoCmd) Run(deps *Dependencies) error {
	storeKind := "csv"
	storePath := deps.Config.StationsCSVPath()
	if deps.Config.UseSQLite {
		storeKind = "sqlite"
		storePath = deps.Config.DatabasePath()
	}

	fmt.Fprintf(deps.Stdout, "Store:       %s (%s)\n", storePath, storeKind)
	fmt.Fprintf(deps.Stdout, "Stations:    %d\n", deps.Index.Len())
	fmt.Fprintf(deps.Stdout, "Prefectures: %d of 47\n", len(deps.Index.AllPrefectures()))

	state, err := deps.States.Load(deps.Ctx)
	if err != nil {
		return err
	}
	if state.SessionID != "" {
		fmt.Fprintf(deps.Stdout, "Crawl:       in progress (%d prefectures done); resume with 'jptransit crawl --resume'\n",
			len(state.CompletedPrefectures))
	} else {
		fmt.Fprintln(deps.Stdout, "Crawl:       none in progress")
	}
	return nil
}
