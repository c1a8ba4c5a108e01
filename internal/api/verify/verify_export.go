package verify

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

const (
	summarySheet   = "Summary"
	spotCheckSheet = "Spot checks"
)

// WriteXLSX renders the reports as a workbook with a summary sheet and one
// row per (target, spot check).
func WriteXLSX(w io.Writer, reports []types.VerificationReport) error {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := []string{"target", "status", "cities", "cost_rows", "with_iata", "with_cost", "iata_and_cost", "error"}
	if err := xl.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for i, r := range reports {
		row := []any{r.Target, status(r), r.Cities, r.CostRows, r.Coverage.WithIATA, r.Coverage.WithCost, r.Coverage.Both, r.Err}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := xl.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	if _, err := xl.NewSheet(spotCheckSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	header = []string{"target", "query", "found", "name", "country", "food_daily", "has_cost_data"}
	if err := xl.SetSheetRow(spotCheckSheet, "A1", &header); err != nil {
		return fmt.Errorf("write spot check header: %w", err)
	}
	next := 2
	for _, r := range reports {
		for _, c := range r.SpotChecks {
			food := ""
			if c.FoodDaily != nil {
				food = c.FoodDaily.StringFixed(2)
			}
			row := []any{r.Target, c.Query, c.Found, c.Name, c.Country, food, c.HasCostData()}
			cell, _ := excelize.CoordinatesToCellName(1, next)
			if err := xl.SetSheetRow(spotCheckSheet, cell, &row); err != nil {
				return fmt.Errorf("write spot check row: %w", err)
			}
			next++
		}
	}

	if _, err := xl.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func status(r types.VerificationReport) string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Err != "":
		return "failed"
	default:
		return "ok"
	}
}

// WriteText prints the reports as aligned plain text for the terminal.
func WriteText(w io.Writer, reports []types.VerificationReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range reports {
		fmt.Fprintf(tw, "== %s (%s)\n", r.Target, status(r))
		switch {
		case r.Skipped:
			fmt.Fprintln(tw, "not configured")
			continue
		case r.Err != "":
			fmt.Fprintf(tw, "error:\t%s\n", r.Err)
			continue
		}
		fmt.Fprintf(tw, "cities:\t%d\n", r.Cities)
		fmt.Fprintf(tw, "cost rows:\t%d\n", r.CostRows)
		fmt.Fprintf(tw, "with IATA:\t%d\n", r.Coverage.WithIATA)
		fmt.Fprintf(tw, "with cost:\t%d\n", r.Coverage.WithCost)
		fmt.Fprintf(tw, "IATA and cost:\t%d\n", r.Coverage.Both)
		for _, c := range r.SpotChecks {
			switch {
			case !c.Found:
				fmt.Fprintf(tw, "  %s\tnot found\n", c.Query)
			case c.HasCostData():
				fmt.Fprintf(tw, "  %s\t%s, %s\tfood %s/day\n", c.Query, c.Name, c.Country, c.FoodDaily.StringFixed(2))
			default:
				fmt.Fprintf(tw, "  %s\t%s, %s\tno cost data\n", c.Query, c.Name, c.Country)
			}
		}
	}
	return tw.Flush()
}
