// Package templates holds the dashboard's HTML components.
package templates

import (
	"github.com/a-h/templ"
)

const (
	Title       = "Bandcamp Sales Dashboard"
	datastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"
)

type section struct {
	id       string
	title    string
	chartURL string
}

var sections = []section{
	{"countries-content", "Countries with the most sales", "/charts/top-countries.svg"},
	{"artists-content", "Top 20 artists by revenue", "/charts/top-artists.svg"},
	{"engagement-content", "Most generous fan bases", "/charts/engagement.svg"},
	{"histogram-content", "Distribution of amount paid", "/charts/amount-histogram.svg"},
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f7f7f9;color:#222}
header{background:#1da0c3;color:#fff;padding:1.5rem 2rem;border-bottom:4px solid #d63031}
header h1{margin:0}
main{max-width:1200px;margin:0 auto;padding:1.5rem}
section{background:#fff;border-radius:8px;padding:1rem 1.5rem;margin-bottom:1.5rem;box-shadow:0 1px 3px rgba(0,0,0,.08)}
.metrics{display:grid;grid-template-columns:repeat(auto-fit,minmax(220px,1fr));gap:1rem}
.metric-card{display:flex;flex-direction:column;padding:.75rem;border-left:4px solid #d63031}
.metric-label{font-size:.85rem;color:#666}
.metric-value{font-size:1.6rem;font-weight:600}
.modern-table{width:100%;border-collapse:collapse;font-size:.9rem}
.modern-table th,.modern-table td{padding:.4rem .6rem;border-bottom:1px solid #eee;text-align:left}
.chart{width:100%;height:auto}
.empty{color:#888}
`

// Dashboard is the page shell. Every section is filled in by the SSE
// endpoints once the page loads.
func Dashboard() templ.Component {
	return component(func(hw *htmlWriter) {
		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.cell("title", Title)
		hw.raw(`<style>` + styles + `</style>`)
		hw.rawf(`<script type="module" src="%s"></script>`, datastarURL)
		hw.raw(`</head><body data-signals="{artist: ''}" data-init="@get('/sse/refresh-all')">`)

		hw.raw(`<header>`)
		hw.cell("h1", Title)
		hw.cell("p", "One million Bandcamp purchases: revenue, audience and fan generosity at a glance")
		hw.raw(`</header><main>`)

		hw.raw(`<section>`)
		hw.cell("h2", "Key metrics")
		hw.raw(`<div id="metrics-content" class="metrics"><p class="empty">Loading…</p></div>`)
		hw.raw(`</section>`)

		for _, s := range sections {
			hw.raw(`<section>`)
			hw.cell("h2", s.title)
			hw.rawf(`<img class="chart" src="%s" alt="%s" loading="lazy">`, s.chartURL, templ.EscapeString(s.title))
			hw.rawf(`<div id="%s"><p class="empty">Loading…</p></div>`, s.id)
			hw.raw(`</section>`)
		}

		hw.raw(`<section>`)
		hw.cell("h2", "Dataset summary")
		hw.raw(`<div id="summary-content"><p class="empty">Loading…</p></div>`)
		hw.raw(`</section>`)

		hw.raw(`<section>`)
		hw.cell("h2", "Sales preview")
		hw.raw(`<label for="artist-filter">Artist </label>`)
		hw.raw(`<span id="artist-filter-slot"><select id="artist-filter"><option value="">All artists</option></select></span>`)
		hw.raw(`<div id="preview-content"><p class="empty">Loading…</p></div>`)
		hw.raw(`</section>`)

		hw.raw(`</main></body></html>`)
	})
}
