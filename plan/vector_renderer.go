package plan

import (
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// DefaultVectorResolution renders one pixel per centimeter of plan.
const DefaultVectorResolution = 25.4

var (
	featureStroke = color.RGBA{0x33, 0x41, 0x55, 255}
	featureFill   = color.RGBA{0xE2, 0xE8, 0xF0, 255}
)

// nrgbaToRGBA converts color.NRGBA to color.RGBA by premultiplying alpha
// This is needed for the canvas library which expects premultiplied RGBA
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// VectorRenderer draws a full floor plan as vector graphics. One canvas
// unit is one centimeter of plan.
type VectorRenderer struct {
	Floor       Floor
	Padding     float64           // cm around the plan
	GridSpacing float64           // cm between grid lines; 0 disables
	Resolution  canvas.Resolution // for PNG output
}

// NewVectorRenderer creates a vector renderer with default settings
func NewVectorRenderer(f Floor) *VectorRenderer {
	return &VectorRenderer{
		Floor:       f,
		Padding:     50,
		GridSpacing: 100,
		Resolution:  canvas.DPI(DefaultVectorResolution),
	}
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

func (r *VectorRenderer) bounds() (minX, minY, maxX, maxY float64, err error) {
	b, ok := FloorBounds(r.Floor)
	if !ok {
		// Features alone still produce a drawing.
		var pts []Point
		for _, d := range r.Floor.Doors {
			pts = append(pts, d.Position)
		}
		for _, w := range r.Floor.Windows {
			pts = append(pts, w.Position)
		}
		for _, c := range r.Floor.Columns {
			pts = append(pts, c.Position)
		}
		for _, s := range r.Floor.Staircases {
			pts = append(pts, s.Position)
		}
		for _, c := range r.Floor.Components {
			pts = append(pts, c.Position)
		}
		if len(pts) == 0 {
			return 0, 0, 0, 0, ErrEmptyFloor
		}
		b = Bounds(pts)
	}
	return b.Min[0], b.Min[1], b.Max[0], b.Max[1], nil
}

// RenderToSVG writes the floor as an SVG to the provided writer
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	minX, minY, maxX, maxY, err := r.bounds()
	if err != nil {
		return err
	}
	width := (maxX - minX) + 2*r.Padding
	height := (maxY - minY) + 2*r.Padding

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, minX, minY, maxX, maxY, width, height)
	if err := svgRenderer.Close(); err != nil {
		return fmt.Errorf("closing svg: %w", err)
	}
	return nil
}

// RenderToPNG writes the floor as a PNG to the provided writer
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	minX, minY, maxX, maxY, err := r.bounds()
	if err != nil {
		return err
	}
	width := (maxX - minX) + 2*r.Padding
	height := (maxY - minY) + 2*r.Padding

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, minX, minY, maxX, maxY, width, height)
	return png.Encode(w, rast)
}

// renderToCanvas renders the floor to a canvas renderer (shared logic for SVG and PNG)
func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, minX, minY, maxX, maxY, width, height float64) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(p Point) (float64, float64) {
		return (p.X - minX) + r.Padding, (p.Y - minY) + r.Padding
	}

	if r.GridSpacing > 0 {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		gridStyle.StrokeWidth = 0.5
		gridStyle.Dashes = []float64{4.0, 4.0}

		for x := math.Ceil(minX/r.GridSpacing) * r.GridSpacing; x <= maxX; x += r.GridSpacing {
			gridPath := &canvas.Path{}
			gridPath.MoveTo(toCanvas(Point{X: x, Y: minY}))
			gridPath.LineTo(toCanvas(Point{X: x, Y: maxY}))
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
		for y := math.Ceil(minY/r.GridSpacing) * r.GridSpacing; y <= maxY; y += r.GridSpacing {
			gridPath := &canvas.Path{}
			gridPath.MoveTo(toCanvas(Point{X: minX, Y: y}))
			gridPath.LineTo(toCanvas(Point{X: maxX, Y: y}))
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
	}

	// Rooms (filled)
	for _, room := range r.Floor.Rooms {
		if len(room.Points) < 3 {
			continue
		}
		c := parseHexColor(LookupRoomType(room.RoomType).Color)
		roomStyle := canvas.DefaultStyle
		roomStyle.Fill = canvas.Paint{Color: nrgbaToRGBA(color.NRGBA{c.R, c.G, c.B, roomFillAlpha})}
		roomStyle.Stroke = canvas.Paint{Color: c}
		roomStyle.StrokeWidth = 1.0

		cp := &canvas.Path{}
		for i, p := range openRing(room.Points) {
			if i == 0 {
				cp.MoveTo(toCanvas(p))
			} else {
				cp.LineTo(toCanvas(p))
			}
		}
		cp.Close()
		renderer.RenderPath(cp, roomStyle, canvas.Identity)
	}

	// Walls (stroked at their thickness)
	for _, wall := range r.Floor.Walls {
		wallStyle := canvas.DefaultStyle
		wallStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		wallStyle.Stroke = canvas.Paint{Color: wallColor}
		wallStyle.StrokeWidth = math.Max(wall.Thickness, 1)

		cp := &canvas.Path{}
		cp.MoveTo(toCanvas(wall.Start))
		cp.LineTo(toCanvas(wall.End))
		renderer.RenderPath(cp, wallStyle, canvas.Identity)
	}

	// Features
	featStyle := canvas.DefaultStyle
	featStyle.Fill = canvas.Paint{Color: featureFill}
	featStyle.Stroke = canvas.Paint{Color: featureStroke}
	featStyle.StrokeWidth = 1.0

	box := func(p Point, w, d, rot float64) {
		cx, cy := toCanvas(p)
		path := canvas.Rectangle(w, d).Translate(-w/2, -d/2)
		renderer.RenderPath(path, featStyle, canvas.Identity.Translate(cx, cy).Rotate(rot))
	}

	for _, d := range r.Floor.Doors {
		box(d.Position, d.Width, DefaultWallThickness, d.Rotation)
	}
	for _, w := range r.Floor.Windows {
		box(w.Position, w.Width, DefaultWallThickness/2, w.Rotation)
	}
	for _, s := range r.Floor.Staircases {
		box(s.Position, s.Width, s.Length, s.Rotation)
	}
	for _, c := range r.Floor.Components {
		box(c.Position, c.Width, c.Height, c.Rotation)
	}
	for _, c := range r.Floor.Columns {
		cx, cy := toCanvas(c.Position)
		renderer.RenderPath(canvas.Circle(c.Diameter/2).Translate(cx, cy), featStyle, canvas.Identity)
	}
}
