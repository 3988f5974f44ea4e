package aosim

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
)

const (
	figPanelSize  = 400
	figPad        = 24
	figTitleBand  = 52
	figLineHeight = 15
)

// RenderStarFigure renders the six-panel star simulation figure and writes
// it to a PNG file.
func RenderStarFigure(res *StarResult, outputPath string) error {
	dc, err := renderStarFigure(res)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("write star figure: %w", err)
	}
	return nil
}

// RenderStarFigureBytes renders the star simulation figure and returns it
// as PNG bytes.
func RenderStarFigureBytes(res *StarResult) ([]byte, error) {
	dc, err := renderStarFigure(res)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderStarFigure lays out the figure in memory: three image panels on the
// top row, the centre-row profile plot and the two power spectra below.
func renderStarFigure(res *StarResult) (*gg.Context, error) {
	if res == nil {
		return nil, fmt.Errorf("no simulation result to render")
	}

	width := figPad + 3*(figPanelSize+figPad)
	height := figPad + 2*(figTitleBand+figPanelSize+figPad)
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	titles := [6]string{
		"Ideal Star (No Turbulence)",
		fmt.Sprintf("With Atmospheric Turbulence\nPSNR: %.2f dB\nSSIM: %.2f",
			res.PSNRDistorted, res.SSIMDistorted),
		fmt.Sprintf("After AO Correction\nPSNR: %.2f dB\nSSIM: %.2f",
			res.PSNRCorrected, res.SSIMCorrected),
		"Horizontal Intensity Profile (Center Row)",
		"Power Spectrum (Ideal)",
		"Power Spectrum (Blurred)",
	}

	for i, title := range titles {
		row, col := i/3, i%3
		x := figPad + col*(figPanelSize+figPad)
		yTitle := figPad + row*(figTitleBand+figPanelSize+figPad)
		yImg := yTitle + figTitleBand

		drawPanelTitle(dc, title, x, yTitle)

		switch i {
		case 0:
			drawMatPanel(dc, res.Ideal, ColormapHot, x, yImg)
		case 1:
			drawMatPanel(dc, res.Distorted, ColormapHot, x, yImg)
		case 2:
			drawMatPanel(dc, res.Corrected, ColormapHot, x, yImg)
		case 3:
			drawProfilePanel(dc, res.Profiles, x, yImg)
		case 4:
			drawSpectrumPanel(dc, res.SpectrumIdeal, x, yImg)
		case 5:
			drawSpectrumPanel(dc, res.SpectrumDistorted, x, yImg)
		}
	}

	return dc, nil
}

// RenderObservationFigure renders the two-panel observation figure and
// writes it to a PNG file.
func RenderObservationFigure(res *ObservationResult, outputPath string) error {
	dc, err := renderObservationFigure(res)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("write observation figure: %w", err)
	}
	return nil
}

// RenderObservationFigureBytes renders the observation figure and returns
// it as PNG bytes.
func RenderObservationFigureBytes(res *ObservationResult) ([]byte, error) {
	dc, err := renderObservationFigure(res)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderObservationFigure lays out the original frame beside the degraded
// frame, both through the gray ramp.
func renderObservationFigure(res *ObservationResult) (*gg.Context, error) {
	if res == nil {
		return nil, fmt.Errorf("no observation result to render")
	}

	width := figPad + 2*(figPanelSize+figPad)
	height := figPad + figTitleBand + figPanelSize + figPad
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	leftTitle := "Original Observation"
	if res.Info != nil && res.Info.Object != "" {
		leftTitle += "\n(" + res.Info.Object + ")"
	}
	rightTitle := fmt.Sprintf("Simulated Atmospheric Effects\nMSE: %.4f, PSNR: %.2f dB",
		res.MSE, res.PSNR)

	drawPanelTitle(dc, leftTitle, figPad, figPad)
	drawMatPanel(dc, res.Original, ColormapGray, figPad, figPad+figTitleBand)

	x := figPad + figPanelSize + figPad
	drawPanelTitle(dc, rightTitle, x, figPad)
	drawMatPanel(dc, res.Degraded, ColormapGray, x, figPad+figTitleBand)

	return dc, nil
}

// drawPanelTitle draws a multi-line title centered over a panel, bottom
// aligned so it sits directly above the image.
func drawPanelTitle(dc *gg.Context, title string, x, yTitle int) {
	lines := strings.Split(title, "\n")
	cx := float64(x) + figPanelSize/2
	start := float64(yTitle+figTitleBand) - figLineHeight*float64(len(lines))
	dc.SetRGB(0, 0, 0)
	for i, line := range lines {
		y := start + figLineHeight*float64(i) + figLineHeight*0.5
		dc.DrawStringAnchored(line, cx, y, 0.5, 0.5)
	}
}

// drawMatPanel maps a matrix through a colormap, scaled to its own value
// range, and draws it fitted into the panel box.
func drawMatPanel(dc *gg.Context, m Mat, cm Colormap, x, y int) {
	lo, hi := MinMax(m)
	img := cm.Render(m, lo, hi)
	drawFitted(dc, img, x, y)
}

// drawSpectrumPanel draws a log-power spectrum through the viridis ramp.
func drawSpectrumPanel(dc *gg.Context, s *Spectrum, x, y int) {
	if s == nil {
		return
	}
	img := ColormapViridis.RenderValues(s.Data, s.Rows, s.Cols, s.Min, s.Max)
	drawFitted(dc, img, x, y)
}

// drawFitted scales an image to fit the panel box, preserving aspect
// ratio, and draws it centered.
func drawFitted(dc *gg.Context, img *image.RGBA, x, y int) {
	b := img.Bounds()
	iw, ih := b.Dx(), b.Dy()
	scale := float64(figPanelSize) / float64(iw)
	if s := float64(figPanelSize) / float64(ih); s < scale {
		scale = s
	}
	tw := int(float64(iw)*scale + 0.5)
	th := int(float64(ih)*scale + 0.5)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	dc.DrawImage(dst, x+(figPanelSize-tw)/2, y+(figPanelSize-th)/2)
}

// drawProfilePanel plots the three centre-row profiles with a frame, grid
// lines and a legend.
func drawProfilePanel(dc *gg.Context, p ProfileSet, x, y int) {
	const (
		marginLeft   = 44.0
		marginBottom = 22.0
		marginTop    = 8.0
		marginRight  = 8.0
	)
	plotX := float64(x) + marginLeft
	plotY := float64(y) + marginTop
	plotW := figPanelSize - marginLeft - marginRight
	plotH := figPanelSize - marginTop - marginBottom

	n := len(p.Ideal)
	if n < 2 {
		return
	}
	yMax := profileMax(p)
	if yMax <= 0 {
		yMax = 1
	}
	yMax *= 1.05

	toX := func(i int) float64 {
		return plotX + plotW*float64(i)/float64(n-1)
	}
	toY := func(v float64) float64 {
		return plotY + plotH*(1-v/yMax)
	}

	// Grid and ticks at quarter intervals.
	dc.SetLineWidth(1)
	for i := 0; i <= 4; i++ {
		fx := toX((n - 1) * i / 4)
		fy := plotY + plotH*float64(i)/4
		dc.SetHexColor("#d9d9d9")
		dc.DrawLine(fx, plotY, fx, plotY+plotH)
		dc.DrawLine(plotX, fy, plotX+plotW, fy)
		dc.Stroke()

		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%d", (n-1)*i/4), fx, plotY+plotH+10, 0.5, 0.5)
		tickVal := yMax * float64(4-i) / 4
		dc.DrawStringAnchored(fmt.Sprintf("%.2f", tickVal), plotX-6, fy, 1, 0.5)
	}

	dc.SetHexColor("#b0b0b0")
	dc.DrawRectangle(plotX, plotY, plotW, plotH)
	dc.Stroke()

	strokeProfile := func(vals []float64) {
		dc.MoveTo(toX(0), toY(vals[0]))
		for i := 1; i < len(vals); i++ {
			dc.LineTo(toX(i), toY(vals[i]))
		}
		dc.Stroke()
	}

	dc.SetHexColor("#1f77b4")
	dc.SetLineWidth(2)
	strokeProfile(p.Ideal)

	dc.SetRGBA(1, 0.498, 0.055, 0.7)
	dc.SetLineWidth(1.5)
	strokeProfile(p.Distorted)

	dc.SetHexColor("#2ca02c")
	dc.SetDash(6, 4)
	strokeProfile(p.Corrected)
	dc.SetDash()

	drawProfileLegend(dc, plotX+plotW-126, plotY+8)
}

// drawProfileLegend draws the three-entry legend box in plot coordinates.
func drawProfileLegend(dc *gg.Context, x, y float64) {
	const (
		w       = 118.0
		rowH    = 16.0
		sample  = 24.0
		padding = 6.0
	)
	h := 3*rowH + 2*padding

	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRectangle(x, y, w, h)
	dc.Fill()
	dc.SetHexColor("#b0b0b0")
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	rowY := func(i int) float64 { return y + padding + rowH*float64(i) + rowH/2 }

	dc.SetHexColor("#1f77b4")
	dc.SetLineWidth(2)
	dc.DrawLine(x+padding, rowY(0), x+padding+sample, rowY(0))
	dc.Stroke()

	dc.SetRGBA(1, 0.498, 0.055, 0.7)
	dc.SetLineWidth(1.5)
	dc.DrawLine(x+padding, rowY(1), x+padding+sample, rowY(1))
	dc.Stroke()

	dc.SetHexColor("#2ca02c")
	dc.SetDash(6, 4)
	dc.DrawLine(x+padding, rowY(2), x+padding+sample, rowY(2))
	dc.Stroke()
	dc.SetDash()

	dc.SetRGB(0, 0, 0)
	labels := [3]string{"Ideal", "Blurred", "AO Corrected"}
	for i, label := range labels {
		dc.DrawStringAnchored(label, x+padding+sample+6, rowY(i), 0, 0.5)
	}
}

func profileMax(p ProfileSet) float64 {
	max := 0.0
	for _, series := range [][]float64{p.Ideal, p.Distorted, p.Corrected} {
		for _, v := range series {
			if v > max {
				max = v
			}
		}
	}
	return max
}
