package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/wristcalm/wristcalm/pkg/vitals"
)

// Chart geometry in SVG user units.
const (
	chartWidth   = 360
	chartHeight  = 220
	chartPadLeft = 44
	chartPadRest = 24
	chartMargin  = 10 // bpm of headroom above and below the data
)

// ChartPoint is one plotted reading.
type ChartPoint struct {
	X, Y  float64
	Value int
	Index int // 1-based reading number for the x axis
}

// ChartTick is a horizontal grid line with its bpm label.
type ChartTick struct {
	Y     float64
	Label int
}

// Chart is the "Heart Rate Trend (Last 5 Readings)" line plot.
type Chart struct {
	Width, Height int
	Left, Right   int
	Top, Bottom   int
	Polyline      string
	Points        []ChartPoint
	Ticks         []ChartTick
}

// buildChart lays out h as a polyline with markers. The y axis spans the
// window's range plus chartMargin on each side so a flat line sits mid-plot.
func buildChart(h vitals.History) Chart {
	lo, hi := h.Range()
	lo -= chartMargin
	hi += chartMargin

	c := Chart{
		Width:  chartWidth,
		Height: chartHeight,
		Left:   chartPadLeft,
		Right:  chartWidth - chartPadRest,
		Top:    chartPadRest,
		Bottom: chartHeight - chartPadRest,
	}

	plotW := float64(c.Right - c.Left)
	plotH := float64(c.Bottom - c.Top)
	yOf := func(v int) float64 {
		return round1(float64(c.Bottom) - float64(v-lo)/float64(hi-lo)*plotH)
	}

	parts := make([]string, 0, vitals.HistorySize)
	for i, v := range h {
		p := ChartPoint{
			X:     round1(float64(c.Left) + float64(i)/float64(vitals.HistorySize-1)*plotW),
			Y:     yOf(v),
			Value: v,
			Index: i + 1,
		}
		c.Points = append(c.Points, p)
		parts = append(parts, fmt.Sprintf("%.1f,%.1f", p.X, p.Y))
	}
	c.Polyline = strings.Join(parts, " ")

	const ticks = 4
	for i := 0; i <= ticks; i++ {
		v := lo + (hi-lo)*i/ticks
		c.Ticks = append(c.Ticks, ChartTick{Y: yOf(v), Label: v})
	}
	return c
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
