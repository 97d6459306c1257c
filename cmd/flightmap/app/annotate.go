package app

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi            = 120.0
	fontSize       = 10.0
	spacing        = 1.3
	tickMarkHeight = 5
	pixelsPerLabel = 120.0
)

type annotatorConfig struct {
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, p *plot) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *plot) error
	}{
		{"drawing cross track scale", a.drawCrossScale},
		{"drawing along track scale", a.drawAlongScale},
		{"drawing info bar", a.drawInfoBar},
	}
	for _, op := range ops {
		if err := op.fn(img, p); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

// drawCrossScale labels the horizontal axis, distance right of the takeoff point
func (a *annotator) drawCrossScale(img *image.RGBA, p *plot) error {
	step := calculateNiceDistanceStep(float64(p.area.Dx())/p.scale, p.area.Dx())

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := a.config.Borders.Top - fontHeight/2

	minY := p.track.MinY - float64(p.offset.X)/p.scale
	maxY := minY + float64(p.area.Dx())/p.scale

	for d := math.Ceil(minY/step) * step; d <= maxY; d += step {
		x, _ := p.point(0, d)
		px := int(x)

		for y := p.area.Min.Y; y < p.area.Max.Y; y++ {
			img.Set(px, y, gridColor)
		}
		for y := a.config.Borders.Top - tickMarkHeight; y < a.config.Borders.Top; y++ {
			img.Set(px, y, color.Black)
		}

		label := formatDistance(d)
		width := font.MeasureString(a.fontFace, label)
		if _, err := a.context.DrawString(label, freetype.Pt(px-width.Round()/2, textY)); err != nil {
			return fmt.Errorf("drawing distance label: %w", err)
		}
	}
	return nil
}

// drawAlongScale labels the vertical axis, distance ahead of the takeoff point
func (a *annotator) drawAlongScale(img *image.RGBA, p *plot) error {
	step := calculateNiceDistanceStep(float64(p.area.Dy())/p.scale, p.area.Dy())

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	maxX := p.track.MaxX + float64(p.offset.Y)/p.scale
	minX := maxX - float64(p.area.Dy())/p.scale

	for d := math.Ceil(minX/step) * step; d <= maxX; d += step {
		_, y := p.point(d, 0)
		py := int(y)

		for x := p.area.Min.X; x < p.area.Max.X; x++ {
			img.Set(x, py, gridColor)
		}
		for x := a.config.Borders.Left - tickMarkHeight; x < a.config.Borders.Left; x++ {
			img.Set(x, py, color.Black)
		}

		label := formatDistance(d)
		width := font.MeasureString(a.fontFace, label)
		textX := a.config.Borders.Left - tickMarkHeight - 3 - width.Round()
		textY := py + fontHeight/2 - metrics.Descent.Round()
		if _, err := a.context.DrawString(label, freetype.Pt(textX, textY)); err != nil {
			return fmt.Errorf("drawing distance label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, p *plot) error {
	t := p.track

	var first, second strings.Builder

	first.WriteString(fmt.Sprintf("Flight %s; Time: %s - %s",
		t.Flight.ID.String()[:8],
		t.TimestampStart.In(a.config.Location).Format(a.config.DatetimeFormat),
		t.TimestampEnd.In(a.config.Location).Format(a.config.TimeFormat)))

	second.WriteString(fmt.Sprintf("Flown: %s; Positions: %s",
		humanize.SIWithDigits(t.Distance()/100, 1, "m"),
		humanize.Comma(int64(len(t.Points)-1))))

	if s := t.Summary; s != nil {
		second.WriteString(fmt.Sprintf("; Responses: %s (%s failed)", humanize.Comma(s.Responses), humanize.Comma(s.Failed)))
		if s.MinBattery.Valid {
			second.WriteString(fmt.Sprintf("; Battery min: %d%%", s.MinBattery.Int64))
		}
		if s.MaxHeight.Valid {
			second.WriteString(fmt.Sprintf("; Height max: %s", formatDistance(float64(s.MaxHeight.Int64))))
		}
	}

	metrics := a.fontFace.Metrics()
	lineHeight := a.context.PointToFixed(a.config.FontSize * spacing)

	textY := img.Bounds().Max.Y - a.config.Borders.Bottom + (metrics.Ascent + metrics.Descent).Round() + tickMarkHeight
	pt := freetype.Pt(a.config.Borders.Left, textY)
	for _, line := range []string{first.String(), second.String()} {
		if _, err := a.context.DrawString(line, pt); err != nil {
			return fmt.Errorf("drawing info text: %w", err)
		}
		pt.Y += lineHeight
	}

	return nil
}

// calculateNiceDistanceStep returns a round distance in centimeters between
// labels, aiming at one label per pixelsPerLabel pixels.
func calculateNiceDistanceStep(distance float64, pixels int) float64 {
	steps := []float64{10, 20, 25, 50, 100, 200, 250, 500, 1_000, 2_000, 5_000, 10_000}

	desiredSteps := math.Max(float64(pixels)/pixelsPerLabel, 1)
	targetStep := distance / desiredSteps

	for _, step := range steps {
		if step >= targetStep {
			return step
		}
	}
	return steps[len(steps)-1]
}

func formatDistance(cm float64) string {
	if cm == 0 {
		return "0 cm"
	}
	if math.Abs(cm) >= 100 {
		return fmt.Sprintf("%.1f m", cm/100)
	}
	return fmt.Sprintf("%.0f cm", cm)
}
