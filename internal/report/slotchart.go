package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/routecast/internal/fsutil"
	"github.com/banshee-data/routecast/internal/pipeline"
	"github.com/banshee-data/routecast/internal/security"
)

// echartsAssetsHost is where the rendered page loads the echarts script.
const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// SlotChart builds a bar chart of the number of route changes in every
// timeslot of the observation horizon.
func SlotChart(res *pipeline.Result) *charts.Bar {
	labels := make([]string, len(res.SlotChangeCounts))
	data := make([]opts.BarData, len(res.SlotChangeCounts))
	for i, n := range res.SlotChangeCounts {
		labels[i] = strconv.Itoa(i)
		if res.Indexer != nil {
			lo, _ := res.Indexer.Bounds(i)
			labels[i] = time.Unix(lo, 0).UTC().Format("01-02 15:04")
		}
		data[i] = opts.BarData{Value: n}
	}

	subtitle := fmt.Sprintf("%d samples, %d route changes", len(res.Samples), res.TotalChanges())
	if res.Indexer != nil {
		subtitle += fmt.Sprintf(", %gh slots", res.Indexer.SlotHours())
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  "Route changes per timeslot",
			Width:      "100%",
			Height:     "480px",
			AssetsHost: echartsAssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s -> %s", res.SourceIP, res.DestIP),
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Timeslot start (UTC)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Route changes"}),
	)
	bar.SetXAxis(labels).
		AddSeries("changes", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// RenderSlotChart writes the chart of res as a standalone HTML page.
func RenderSlotChart(w io.Writer, res *pipeline.Result) error {
	return SlotChart(res).Render(w)
}

// SlotChartFileName returns slots_<src>_<dst>.html.
func SlotChartFileName(src, dst string) string {
	return fmt.Sprintf("slots_%s_%s.html", security.SanitizeFilename(src), security.SanitizeFilename(dst))
}

// WriteSlotChart renders the slot chart of res into dir and returns the
// file's path.
func WriteSlotChart(fsys fsutil.FileSystem, dir string, res *pipeline.Result) (string, error) {
	return writeFile(fsys, dir, SlotChartFileName(res.SourceIP, res.DestIP), func(w io.Writer) error {
		return RenderSlotChart(w, res)
	})
}
