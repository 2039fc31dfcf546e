// Copyright (c) 2026 Culture Lab Instruments
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/culturelab/serlogger/internal/sample"
)

// Fixed axis ranges, matching the bench display.
const (
	TempAxisMin = 15
	TempAxisMax = 40
	CO2AxisMin  = -1
	CO2AxisMax  = 7
)

const (
	panelWidth   = 760
	panelHeight  = 280
	readoutWidth = 180 // right margin for the live readout box
	lineHeight   = 13  // basicfont.Face7x13
)

// Targets are the setpoints drawn as dashed horizontal reference lines.
type Targets struct {
	Temp float64
	CO2  float64
}

// RenderLive draws the rolling-window view: temperature and CO2 on two
// stacked fixed-range panels with dashed target lines, plus a readout box
// with the latest values outside the plot area. Both panels are repainted
// from scratch on every call; there is no incremental drawing.
func RenderLive(window []sample.Sample, targets Targets, w io.Writer) error {
	out := image.NewRGBA(image.Rect(0, 0, panelWidth+readoutWidth, 2*panelHeight))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)

	times, temps, co2s := sample.Series(window)

	// go-chart needs two distinct x values before it can scale an axis.
	if len(window) < 2 || times[0] == times[len(times)-1] {
		drawText(out, panelWidth/2-40, panelHeight, []string{"Waiting for data..."})
		return png.Encode(w, out)
	}

	tempPanel := panel("Temperature (C)", TempAxisMin, TempAxisMax,
		series("Temperature", times, temps, chart.ColorRed),
		targetLine("Target Temp", times, targets.Temp))
	co2Panel := panel("CO2 (%)", CO2AxisMin, CO2AxisMax,
		series("CO2", times, co2s, chart.ColorBlue),
		targetLine("Target CO2", times, targets.CO2))

	if err := compose(out, tempPanel, co2Panel); err != nil {
		return err
	}

	latest := window[len(window)-1]
	drawText(out, panelWidth+10, panelHeight-2*lineHeight, []string{
		fmt.Sprintf("Time: %.2f s", latest.Elapsed),
		fmt.Sprintf("Temp: %.2f C", latest.Temp),
		fmt.Sprintf("CO2:  %.2f %%", latest.CO2),
	})

	return png.Encode(w, out)
}

// RenderFinal draws the whole session on one shared axis with a legend,
// temperature and CO2 against elapsed seconds.
func RenderFinal(history []sample.Sample, w io.Writer) error {
	times, temps, co2s := sample.Series(history)

	if len(history) < 2 || times[0] == times[len(times)-1] {
		return fmt.Errorf("not enough samples to plot (%d)", len(history))
	}

	// An explicit padded range keeps a flat series (a well-tuned controller
	// holding setpoint) from collapsing the axis.
	yMin, yMax := minMax(append(append([]float64{}, temps...), co2s...))

	graph := chart.Chart{
		Title:  "Temperature and CO2 vs Time",
		Width:  panelWidth + readoutWidth,
		Height: 2 * panelHeight,
		XAxis: chart.XAxis{
			Name: "Time (s)",
		},
		YAxis: chart.YAxis{
			Name:  "Temperature (C) and CO2 (%)",
			Range: &chart.ContinuousRange{Min: yMin - 1, Max: yMax + 1},
		},
		Series: []chart.Series{
			series("Temperature", times, temps, chart.ColorRed),
			series("CO2", times, co2s, chart.ColorBlue),
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render summary chart: %w", err)
	}
	return nil
}

func series(name string, xs, ys []float64, col drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: col,
			StrokeWidth: 2.0,
		},
	}
}

// targetLine is the dashed horizontal setpoint reference across the visible
// time span.
func targetLine(name string, times []float64, target float64) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{times[0], times[len(times)-1]},
		YValues: []float64{target, target},
		Style: chart.Style{
			StrokeColor:     chart.ColorBlack,
			StrokeWidth:     1.0,
			StrokeDashArray: []float64{5.0, 5.0},
		},
	}
}

// panel builds one fixed-range live panel. The x axis is hidden, as on the
// original display: the window label carries the time context.
func panel(axisName string, yMin, yMax float64, s ...chart.Series) chart.Chart {
	return chart.Chart{
		Width:  panelWidth,
		Height: panelHeight,
		XAxis: chart.XAxis{
			Style: chart.Style{Hidden: true},
		},
		YAxis: chart.YAxis{
			Name:  axisName,
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: s,
	}
}

// compose renders the two panels and stacks them into the output image, top
// and bottom.
func compose(out *image.RGBA, top, bottom chart.Chart) error {
	topImg, err := renderPNG(top)
	if err != nil {
		return err
	}
	bottomImg, err := renderPNG(bottom)
	if err != nil {
		return err
	}
	draw.Draw(out, image.Rect(0, 0, panelWidth, panelHeight), topImg, image.Point{}, draw.Over)
	draw.Draw(out, image.Rect(0, panelHeight, panelWidth, 2*panelHeight), bottomImg, image.Point{}, draw.Over)
	return nil
}

func minMax(vals []float64) (min, max float64) {
	min, max = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func renderPNG(graph chart.Chart) (image.Image, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render panel: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode panel: %w", err)
	}
	return img, nil
}

func drawText(img *image.RGBA, x, y int, lines []string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{A: 255}),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		d.Dot = fixed.P(x, y+i*lineHeight)
		d.DrawString(line)
	}
}
