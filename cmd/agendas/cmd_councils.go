package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/config"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/pkg/scrapers"
)

var councilsCmd = &cobra.Command{
	Use:   "councils",
	Short: "List the councils declared in the manifest",
	Args:  cobra.NoArgs,
	RunE:  runCouncils,
}

func runCouncils(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	entries, err := scrapers.LoadManifest(cfg.CouncilsFile)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREGION\tTYPE\tBASE URL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Region, e.Type, e.BaseURL)
	}
	return w.Flush()
}
