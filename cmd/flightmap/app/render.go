package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"golang.org/x/image/vector"
)

const (
	lineWidth   = 3.0 // pixels
	markerSize  = 6.0 // pixels
	arrowLength = 14.0
	minPlotSize = 320 // pixels

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 80
	defaultBottomBorder = 70
	defaultRightBorder  = 40

	defaultTimeFormat     = "15:04:05"
	defaultDatetimeFormat = time.DateTime
)

var (
	confirmedColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	pendingColor   = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	startColor     = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	endColor       = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	gridColor      = color.RGBA{R: 0xe8, G: 0xe8, B: 0xe8, A: 0xff}
)

// BorderConfig defines the sizes of white space around the track
type BorderConfig struct {
	Top    int // Space for the cross track scale
	Left   int // Space for the along track scale
	Bottom int // Space for information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for track visualization
type RenderConfig struct {
	// Time display configuration
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location

	Scale         float64 // pixels per centimeter
	FontSize      float64 // points
	NoAnnotations bool

	BorderConfig BorderConfig
}

// TrackRenderer draws a flight track seen from above, the drone's initial
// heading pointing up.
type TrackRenderer struct {
	config RenderConfig
}

// NewTrackRenderer creates a new track renderer with the given configuration
func NewTrackRenderer(config RenderConfig) (*TrackRenderer, error) {
	if config.Scale < 0 {
		return nil, fmt.Errorf("invalid scale %0.2f", config.Scale)
	}

	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Scale == 0 {
		config.Scale = defaultScale
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &TrackRenderer{config: config}, nil
}

// plot maps track coordinates onto the image
type plot struct {
	area   image.Rectangle
	scale  float64
	track  *Track
	offset image.Point // centers a track smaller than minPlotSize
}

// point returns the image position of a track position
func (p *plot) point(x, y float64) (float32, float32) {
	px := float64(p.area.Min.X+p.offset.X) + (y-p.track.MinY)*p.scale
	py := float64(p.area.Min.Y+p.offset.Y) + (p.track.MaxX-x)*p.scale
	return float32(px), float32(py)
}

// Render creates an image of the track with annotations
func (r *TrackRenderer) Render(track *Track) (*image.RGBA, error) {
	p := r.newPlot(track)

	borders := r.config.BorderConfig
	fullWidth := p.area.Dx() + borders.Left + borders.Right
	fullHeight := p.area.Dy() + borders.Top + borders.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	if !r.config.NoAnnotations {
		ann, err := newAnnotator(annotatorConfig{
			TimeFormat:     r.config.TimeFormat,
			DatetimeFormat: r.config.DatetimeFormat,
			Location:       r.config.Location,
			FontSize:       r.config.FontSize,
			Borders:        borders,
		})
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, p); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderTrack(img, p)

	return img, nil
}

func (r *TrackRenderer) newPlot(track *Track) *plot {
	width := int(math.Ceil(track.Width() * r.config.Scale))
	height := int(math.Ceil(track.Height() * r.config.Scale))

	p := plot{
		scale: r.config.Scale,
		track: track,
		offset: image.Point{
			X: max(minPlotSize-width, 0) / 2,
			Y: max(minPlotSize-height, 0) / 2,
		},
	}

	left, top := r.config.BorderConfig.Left, r.config.BorderConfig.Top
	p.area = image.Rect(left, top, left+max(width, minPlotSize), top+max(height, minPlotSize))

	return &p
}

// renderTrack draws the path segments, colored by whether the drone
// acknowledged the movement, and marks the start and the final heading.
func (r *TrackRenderer) renderTrack(img *image.RGBA, p *plot) {
	z := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())
	points := p.track.Points

	for i := 1; i < len(points); i++ {
		x1, y1 := p.point(points[i-1].X, points[i-1].Y)
		x2, y2 := p.point(points[i].X, points[i].Y)
		if x1 == x2 && y1 == y2 {
			continue // a turn
		}

		c := pendingColor
		if points[i].Confirmed {
			c = confirmedColor
		}

		z.Reset(img.Bounds().Dx(), img.Bounds().Dy())
		strokeLine(z, x1, y1, x2, y2, lineWidth)
		z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
	}

	sx, sy := p.point(points[0].X, points[0].Y)
	z.Reset(img.Bounds().Dx(), img.Bounds().Dy())
	square(z, sx, sy, markerSize)
	z.Draw(img, img.Bounds(), image.NewUniform(startColor), image.Point{})

	last := p.track.Last()
	ex, ey := p.point(last.X, last.Y)
	z.Reset(img.Bounds().Dx(), img.Bounds().Dy())
	arrow(z, ex, ey, last.Heading, arrowLength)
	z.Draw(img, img.Bounds(), image.NewUniform(endColor), image.Point{})
}

// strokeLine adds a line of width w as a filled quad
func strokeLine(z *vector.Rasterizer, x1, y1, x2, y2, w float32) {
	dx, dy := x2-x1, y2-y1
	length := float32(math.Hypot(float64(dx), float64(dy)))
	nx, ny := -dy/length*w/2, dx/length*w/2

	z.MoveTo(x1+nx, y1+ny)
	z.LineTo(x2+nx, y2+ny)
	z.LineTo(x2-nx, y2-ny)
	z.LineTo(x1-nx, y1-ny)
	z.ClosePath()
}

func square(z *vector.Rasterizer, x, y, size float32) {
	h := size / 2
	z.MoveTo(x-h, y-h)
	z.LineTo(x+h, y-h)
	z.LineTo(x+h, y+h)
	z.LineTo(x-h, y+h)
	z.ClosePath()
}

// arrow adds a triangle at x, y pointing along heading. Heading 0 points up
// and grows clockwise, as on a compass.
func arrow(z *vector.Rasterizer, x, y float32, heading, length float64) {
	rad := heading * math.Pi / 180
	fx, fy := math.Sin(rad), -math.Cos(rad) // forward
	sx, sy := -fy, fx                       // side

	tipX, tipY := float64(x)+fx*length, float64(y)+fy*length
	half := length / 2.5

	z.MoveTo(float32(tipX), float32(tipY))
	z.LineTo(float32(float64(x)+sx*half), float32(float64(y)+sy*half))
	z.LineTo(float32(float64(x)-sx*half), float32(float64(y)-sy*half))
	z.ClosePath()
}
