package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"dealradar/models"
	"dealradar/storage"
)

const showRowLimit = 20

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Render the latest run artifacts as tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var summary models.RunSummary
		if err := readArtifact(cfg.OutputDir, storage.LastRunFile, &summary); err != nil {
			return fmt.Errorf("no artifacts in %q (run `dealradar run` first): %w", cfg.OutputDir, err)
		}

		var deals, alerts []*models.ScoredListing
		if err := readArtifact(cfg.OutputDir, storage.DealsFile, &deals); err != nil {
			return err
		}
		if err := readArtifact(cfg.OutputDir, storage.AlertsFile, &alerts); err != nil {
			return err
		}

		fmt.Printf("Last run %s — mode %s, %d listings, baseline %.2f (%s)\n\n",
			summary.GeneratedAt.Format(time.RFC3339), summary.Mode,
			summary.ListingCount, summary.Baseline.PricePerArea, summary.Baseline.Source)

		renderListings("Top Deals", deals)
		fmt.Println()
		renderListings("New Since Last Run", alerts)
		return nil
	},
}

// renderListings prints one artifact as a terminal table.
func renderListings(title string, listings []*models.ScoredListing) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"#", "Score", "Address", "City", "Price", "Area", "$/Area"})

	for i, sl := range listings {
		if i >= showRowLimit {
			break
		}
		t.AppendRow(table.Row{
			sl.Rank,
			fmt.Sprintf("%.2f", sl.Score),
			sl.Address,
			sl.City,
			fmt.Sprintf("%.0f", sl.Price),
			fmt.Sprintf("%.0f", sl.Area),
			fmt.Sprintf("%.2f", sl.PricePerArea),
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d total", len(listings))})
	t.Render()
}

func readArtifact(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(showCmd)
}
