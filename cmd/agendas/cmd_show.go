package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/config"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <council> [download-url]",
	Short: "Show stored agenda records for a council",
	Long:  "With a download URL, prints that record. Without one, lists every record stored for the council.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.StoragePath, storage.Options{})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	ctx := background(cmd)
	out := cmd.OutOrStdout()
	if len(args) == 2 {
		rec, found, err := store.Get(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no record for %s at %s", args[0], args[1])
		}
		printRecord(cmd, rec)
		return nil
	}

	recs, err := store.List(ctx, args[0])
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintf(out, "No records for %s\n", args[0])
		return nil
	}
	for i, rec := range recs {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printRecord(cmd, rec)
	}
	return nil
}

func printRecord(cmd *cobra.Command, rec domain.AgendaRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Council:  %s\n", rec.Council)
	fmt.Fprintf(out, "Date:     %s\n", rec.Date)
	fmt.Fprintf(out, "Time:     %s\n", rec.Time)
	fmt.Fprintf(out, "Webpage:  %s\n", rec.WebpageURL)
	fmt.Fprintf(out, "Recorded: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	for _, u := range rec.DownloadURLs {
		fmt.Fprintf(out, "Document: %s\n", u)
	}
	names := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(out, "  %s: %s\n", k, rec.Fields[k])
	}
}
