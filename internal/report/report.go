// Package report prints the dashboard figures as plain-text tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"bandcamp-dashboard/internal/models"
	"bandcamp-dashboard/internal/money"
)

// Source is the subset of the analytics service a report needs.
type Source interface {
	Metrics() models.Metrics
	TopArtists(limit int) []models.GroupValue
	TopCountries(limit int) []models.GroupValue
	TopEngagement(limit int) []models.GroupValue
}

func Write(w io.Writer, src Source, limit int) error {
	sections := []struct {
		title string
		write func(io.Writer)
	}{
		{"Metrics", func(w io.Writer) { writeMetrics(w, src.Metrics()) }},
		{fmt.Sprintf("Top %d artists by revenue", limit), func(w io.Writer) {
			writeGroups(w, []string{"#", "Artist", "Revenue (USD)", "Sales"}, src.TopArtists(limit), money.USDFloat)
		}},
		{fmt.Sprintf("Top %d countries by sales", limit), func(w io.Writer) {
			writeGroups(w, []string{"#", "Country", "Sales", "Rows"}, src.TopCountries(limit), func(v float64) string {
				return money.Count(int64(v))
			})
		}},
		{fmt.Sprintf("Top %d artists by engagement", limit), func(w io.Writer) {
			writeGroups(w, []string{"#", "Artist", "Mean % over", "Sales"}, src.TopEngagement(limit), money.Percent)
		}},
	}

	for i, s := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", s.title); err != nil {
			return err
		}
		s.write(w)
	}
	return nil
}

func writeMetrics(w io.Writer, m models.Metrics) {
	avg := "n/a"
	if m.PaidRecords > 0 {
		avg = money.USD(m.AverageTicket)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Total revenue", money.USD(m.TotalRevenue)},
		{"Average ticket", avg},
		{"Artists", money.Count(m.UniqueArtists)},
		{"Records", money.Count(m.Records)},
	})
	table.Render()
}

func writeGroups(w io.Writer, header []string, groups []models.GroupValue, format func(float64) string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})
	for i, g := range groups {
		table.Append([]string{strconv.Itoa(i + 1), g.Key, format(g.Value), money.Count(g.Count)})
	}
	table.Render()
}
