package analytics

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/xxxsen/docqa/internal/model"
)

// RenderCharts writes a standalone HTML page holding a bar chart and a pie
// chart of top. An empty top renders the page without charts.
func RenderCharts(w io.Writer, top []model.TopQuery) error {
	page := components.NewPage()
	page.PageTitle = "Top queries"
	if len(top) > 0 {
		page.AddCharts(barChart(top), pieChart(top))
	}
	return page.Render(w)
}

func barChart(top []model.TopQuery) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Top 5 queries"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Query"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)
	names := make([]string, 0, len(top))
	items := make([]opts.BarData, 0, len(top))
	for _, item := range top {
		names = append(names, item.Query)
		items = append(items, opts.BarData{Value: item.Count})
	}
	bar.SetXAxis(names).AddSeries("Count", items)
	return bar
}

func pieChart(top []model.TopQuery) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Top 5 queries distribution"}),
	)
	items := make([]opts.PieData, 0, len(top))
	for _, item := range top {
		items = append(items, opts.PieData{Name: item.Query, Value: item.Count})
	}
	pie.AddSeries("Count", items)
	return pie
}
