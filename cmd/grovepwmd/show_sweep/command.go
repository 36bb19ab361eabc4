package showsweep

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"time"

	"github.com/go-analyze/charts"
	"github.com/mattn/go-sixel"
	"github.com/mdouchement/grovepwmd"
	"github.com/mdouchement/grovepwmd/grovepwm"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var duration time.Duration
	var interval time.Duration
	var resolution int

	cmd := &cobra.Command{
		Use:   "show-sweep",
		Short: "Show the speed profile sent by the sweep command",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			samples := grovepwmd.SineSweep(duration, interval)
			if len(samples) == 0 {
				return fmt.Errorf("no sample for a %s sweep", duration)
			}

			//
			// Compute points
			//

			speed := charts.LineSeries{Name: "speed"}
			duty := charts.LineSeries{Name: "duty (magnitude byte)"}
			labels := make([]string, 0, len(samples))
			for _, s := range samples {
				speed.Values = append(speed.Values, s.Speed*100)
				duty.Values = append(duty.Values, float64(grovepwm.Magnitude(s.Speed))*100/255)
				labels = append(labels, s.Offset.Truncate(time.Millisecond).String())
			}

			//
			// Render chart
			//

			opt := charts.NewLineChartOptionWithSeries(charts.LineSeriesList{speed, duty})
			opt.Theme = charts.GetTheme(charts.ThemeVividDark)
			opt.Padding = charts.NewBox(20, 20, 20, 20)
			opt.Title.Text = fmt.Sprintf("sweep: %s every %s", duration, interval)
			opt.Title.FontStyle.FontSize = 16
			opt.Title.Offset = charts.OffsetLeft
			opt.Legend = charts.LegendOption{
				Show:     grovepwmd.ToPtr(true),
				Offset:   charts.OffsetCenter,
				Vertical: grovepwmd.ToPtr(true),
				Padding:  charts.NewBox(0, 0, 0, 20),
			}
			opt.Symbol = charts.SymbolNone
			opt.LineStrokeWidth = 2
			opt.StrokeSmoothingTension = 1
			opt.XAxis.Show = grovepwmd.ToPtr(true)
			opt.XAxis.Title = "time"
			opt.XAxis.Labels = labels
			opt.XAxis.LabelCount = 10
			opt.YAxis = []charts.YAxisOption{
				{
					Show:                   grovepwmd.ToPtr(true),
					Title:                  "%",
					Min:                    grovepwmd.ToPtr(float64(-100)),
					Max:                    grovepwmd.ToPtr(float64(100)),
					RangeValuePaddingScale: grovepwmd.ToPtr(float64(0)),
					Unit:                   25,
				},
			}
			p := charts.NewPainter(charts.PainterOptions{
				OutputFormat: charts.ChartOutputPNG,
				Width:        resolution,
				Height:       int(float64(resolution) / (16.0 / 9.0)),
			})

			err := p.LineChart(opt)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			mPNG, err := p.Bytes()
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			m, _, err := image.Decode(bytes.NewReader(mPNG))
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			codec := sixel.NewEncoder(os.Stdout)
			err = codec.Encode(m)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			return nil
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", grovepwmd.DefaultSweepDuration, "Duration of the sine period")
	cmd.Flags().DurationVarP(&interval, "interval", "i", grovepwmd.DefaultSweepInterval, "Interval between two speed commands")
	cmd.Flags().IntVarP(&resolution, "resolution", "r", 1000, "The width size in pixel of the graph")

	return cmd
}
