package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"bandcamp-dashboard/internal/models"
	"bandcamp-dashboard/internal/money"
)

// htmlWriter stops writing after the first error and reports it once.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) rawf(format string, args ...any) {
	hw.raw(fmt.Sprintf(format, args...))
}

func (hw *htmlWriter) cell(tag, s string) {
	hw.raw("<" + tag + ">")
	hw.text(s)
	hw.raw("</" + tag + ">")
}

func component(fn func(hw *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		fn(hw)
		return hw.err
	})
}

func MetricCards(m models.Metrics) templ.Component {
	return component(func(hw *htmlWriter) {
		avg := "n/a"
		if m.PaidRecords > 0 {
			avg = money.USD(m.AverageTicket)
		}

		hw.raw(`<div id="metrics-content" class="metrics">`)
		for _, card := range [][2]string{
			{"Revenue on the platform", money.USD(m.TotalRevenue)},
			{"Average ticket", avg},
			{"Artists on the platform", money.Count(m.UniqueArtists)},
			{"Sales analysed", money.Count(m.Records)},
		} {
			hw.raw(`<div class="metric-card"><span class="metric-label">`)
			hw.text(card[0])
			hw.raw(`</span><span class="metric-value">`)
			hw.text(card[1])
			hw.raw(`</span></div>`)
		}
		hw.raw(`</div>`)
	})
}

// RankingTable lists ranked groups; format renders the aggregated value.
func RankingTable(id, keyHeader, valueHeader string, groups []models.GroupValue, format func(float64) string) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.rawf(`<div id="%s">`, templ.EscapeString(id))
		if len(groups) == 0 {
			hw.raw(`<p class="empty">No data</p></div>`)
			return
		}
		hw.raw(`<table class="modern-table"><thead><tr><th>#</th>`)
		hw.cell("th", keyHeader)
		hw.cell("th", valueHeader)
		hw.raw(`<th>Sales</th></tr></thead><tbody>`)
		for i, g := range groups {
			hw.raw(`<tr>`)
			hw.cell("td", strconv.Itoa(i+1))
			hw.cell("td", g.Key)
			hw.raw(`<td><strong>`)
			hw.text(format(g.Value))
			hw.raw(`</strong></td>`)
			hw.cell("td", money.Count(g.Count))
			hw.raw(`</tr>`)
		}
		hw.raw(`</tbody></table></div>`)
	})
}

func PreviewTable(rows []models.PreviewRow) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw(`<div id="preview-content">`)
		if len(rows) == 0 {
			hw.raw(`<p class="empty">No sales match this filter</p></div>`)
			return
		}
		hw.raw(`<table class="modern-table"><thead><tr>`)
		for _, h := range []string{"ID", "Artist", "Album", "Country", "Paid (USD)", "Over (USD)", "% over"} {
			hw.cell("th", h)
		}
		hw.raw(`</tr></thead><tbody>`)
		for _, r := range rows {
			hw.raw(`<tr>`)
			hw.cell("td", r.ID)
			hw.cell("td", r.ArtistName)
			hw.cell("td", r.AlbumTitle)
			hw.cell("td", r.Country)
			hw.cell("td", strconv.FormatFloat(r.AmountPaid, 'f', 2, 64))
			hw.cell("td", strconv.FormatFloat(r.AmountOver, 'f', 2, 64))
			hw.cell("td", r.PercentOver)
			hw.raw(`</tr>`)
		}
		hw.raw(`</tbody></table></div>`)
	})
}

// ArtistFilter is the artist select box; an empty value means every artist.
func ArtistFilter(artists []models.GroupValue) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw(`<select id="artist-filter" data-bind:artist data-on:change="@get('/sse/preview')">`)
		hw.raw(`<option value="">All artists</option>`)
		for _, a := range artists {
			hw.raw(`<option value="`)
			hw.text(a.Key)
			hw.raw(`">`)
			hw.text(a.Key)
			hw.raw(`</option>`)
		}
		hw.raw(`</select>`)
	})
}

func SummaryTable(s models.ColumnSummary) templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw(`<div id="summary-content">`)
		if len(s.Columns) == 0 {
			hw.raw(`<p class="empty">No data</p></div>`)
			return
		}
		hw.raw(`<table class="modern-table"><thead><tr>`)
		for _, c := range s.Columns {
			hw.cell("th", c)
		}
		hw.raw(`</tr></thead><tbody>`)
		for _, row := range s.Rows {
			hw.raw(`<tr>`)
			for _, v := range row {
				hw.cell("td", v)
			}
			hw.raw(`</tr>`)
		}
		hw.raw(`</tbody></table></div>`)
	})
}
