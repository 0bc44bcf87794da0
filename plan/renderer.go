package plan

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultThumbnailSize is the edge length of floor thumbnails in pixels.
const DefaultThumbnailSize = 200

const (
	thumbnailFill      = 0.9  // share of the image used by the plan
	roomFillAlpha      = 0x40 // 25%
	emptyFloorExtent   = 1000.0
	defaultSupersample = 2
)

// ErrEmptyFloor is returned when a floor has no walls or rooms to draw.
var ErrEmptyFloor = errors.New("floor has no geometry")

var (
	thumbnailBackground = color.RGBA{255, 255, 255, 255}
	wallColor           = color.RGBA{0x0A, 0x1A, 0x2F, 255} // dark navy
)

// ThumbnailRenderer rasterizes a floor's walls and rooms into a small
// square preview. Drawing happens at Supersample times the final size and
// is scaled down with Catmull-Rom filtering.
type ThumbnailRenderer struct {
	Size        int
	Supersample int
	Labels      bool // draw room labels; only legible above ~300px
}

// NewThumbnailRenderer returns a renderer producing size x size images.
func NewThumbnailRenderer(size int) *ThumbnailRenderer {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	return &ThumbnailRenderer{Size: size, Supersample: defaultSupersample}
}

// Render draws f. It returns ErrEmptyFloor when there is nothing to draw.
func (r *ThumbnailRenderer) Render(f Floor) (*image.RGBA, error) {
	b, ok := FloorBounds(f)
	if !ok {
		return nil, ErrEmptyFloor
	}

	ss := max(r.Supersample, 1)
	size := float64(r.Size * ss)

	w, h := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	if w == 0 {
		w = emptyFloorExtent
	}
	if h == 0 {
		h = emptyFloorExtent
	}
	scale := math.Min(size/w, size/h) * thumbnailFill
	offX := (size-w*scale)/2 - b.Min[0]*scale
	offY := (size-h*scale)/2 - b.Min[1]*scale

	toImage := func(p Point) (int, int) {
		return int(math.Round(p.X*scale + offX)), int(math.Round(p.Y*scale + offY))
	}

	big := image.NewRGBA(image.Rect(0, 0, r.Size*ss, r.Size*ss))
	fillRect(big, big.Bounds(), thumbnailBackground)

	for _, room := range f.Rooms {
		c := parseHexColor(LookupRoomType(room.RoomType).Color)
		fill := color.NRGBA{c.R, c.G, c.B, roomFillAlpha}
		fillPolygon(big, room.Points, scale, offX, offY, fill)
		for i := 0; i+1 < len(room.Points); i++ {
			x0, y0 := toImage(room.Points[i])
			x1, y1 := toImage(room.Points[i+1])
			drawLine(big, x0, y0, x1, y1, ss, c)
		}
	}

	for _, wall := range f.Walls {
		x0, y0 := toImage(wall.Start)
		x1, y1 := toImage(wall.End)
		drawLine(big, x0, y0, x1, y1, 2*ss, wallColor)
	}

	img := big
	if ss > 1 {
		img = image.NewRGBA(image.Rect(0, 0, r.Size, r.Size))
		draw.CatmullRom.Scale(img, img.Bounds(), big, big.Bounds(), draw.Src, nil)
	}

	if r.Labels {
		for _, room := range f.Rooms {
			if room.RoomType == "" {
				continue
			}
			label := LookupRoomType(room.RoomType).Label
			x := int(room.Center.X*scale/float64(ss)+offX/float64(ss)) - font.MeasureString(basicfont.Face7x13, label).Round()/2
			y := int(room.Center.Y*scale/float64(ss)+offY/float64(ss)) + 4
			drawText(img, x, y, label, color.RGBA{0, 0, 0, 255})
		}
	}

	return img, nil
}

// RenderPNG draws f and encodes it as PNG.
func (r *ThumbnailRenderer) RenderPNG(f Floor) ([]byte, error) {
	img, err := r.Render(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func fillRect(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// fillPolygon alpha-blends c over every pixel whose center lies inside the
// polygon after mapping plan coordinates with scale and offset.
func fillPolygon(img *image.RGBA, points []Point, scale, offX, offY float64, c color.NRGBA) {
	if len(points) < 3 {
		return
	}
	px := make([]Point, len(points))
	for i, p := range points {
		px[i] = Point{X: p.X*scale + offX, Y: p.Y*scale + offY}
	}
	b := Bounds(px)
	bounds := img.Bounds()
	x0, y0 := max(int(math.Floor(b.Min[0])), bounds.Min.X), max(int(math.Floor(b.Min[1])), bounds.Min.Y)
	x1, y1 := min(int(math.Ceil(b.Max[0])), bounds.Max.X-1), min(int(math.Ceil(b.Max[1])), bounds.Max.Y-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if PointInPolygon(Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}, px) {
				img.Set(x, y, blendColors(img.RGBAAt(x, y), c))
			}
		}
	}
}

// drawLine draws a straight line with a square brush of the given width.
func drawLine(img *image.RGBA, x0, y0, x1, y1, width int, c color.RGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		drawSquare(img, x0, y0, width, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// blendColors performs alpha blending of two colors
func blendColors(bg color.RGBA, fg color.NRGBA) color.NRGBA {
	alpha := float64(fg.A) / 255.0
	invAlpha := 1.0 - alpha

	return color.NRGBA{
		R: uint8(float64(fg.R)*alpha + float64(bg.R)*invAlpha),
		G: uint8(float64(fg.G)*alpha + float64(bg.G)*invAlpha),
		B: uint8(float64(fg.B)*alpha + float64(bg.B)*invAlpha),
		A: 255,
	}
}

// drawSquare draws a filled square centered on cx, cy
func drawSquare(img *image.RGBA, cx, cy, size int, c color.RGBA) {
	half := size / 2
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			x, y := cx+dx, cy+dy
			if x >= 0 && x < img.Bounds().Max.X && y >= 0 && y < img.Bounds().Max.Y {
				img.Set(x, y, c)
			}
		}
	}
}

// drawText renders text onto an image at the specified position
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// parseHexColor parses a hex color string like "#0A1A2F" to color.RGBA
func parseHexColor(hex string) color.RGBA {
	// Default to grey if parsing fails
	defaultColor := color.RGBA{128, 128, 128, 255}

	if len(hex) == 0 {
		return defaultColor
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return defaultColor
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return defaultColor
	}
	return color.RGBA{r, g, b, 255}
}
