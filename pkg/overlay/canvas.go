package overlay

import (
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Canvas is a transparent drawing surface with a save/restore transform
// stack, sized to the displayed video.
type Canvas interface {
	Size() image.Point
	Resize(size image.Point)
	Clear()
	Save()
	Restore()
	// FlipHorizontal mirrors subsequent draws about the vertical line x = pivotX.
	FlipHorizontal(pivotX float64)
	// DrawImage draws img scaled into the rectangle with top-left (x, y)
	// and size w x h, under the current transform.
	DrawImage(img image.Image, x, y, w, h float64)
}

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// RasterCanvas is a Canvas backed by an RGBA pixel buffer.
type RasterCanvas struct {
	img    *image.RGBA
	m      f64.Aff3
	stack  []f64.Aff3
	interp xdraw.Transformer
}

// NewRasterCanvas creates a transparent canvas of the given size.
func NewRasterCanvas(size image.Point) *RasterCanvas {
	return &RasterCanvas{
		img:    image.NewRGBA(image.Rectangle{Max: size}),
		m:      identity,
		interp: xdraw.ApproxBiLinear,
	}
}

// Size implements Canvas.
func (c *RasterCanvas) Size() image.Point {
	return c.img.Bounds().Size()
}

// Resize reallocates the buffer when size differs from the current one.
// The transform stack is reset.
func (c *RasterCanvas) Resize(size image.Point) {
	if size == c.Size() {
		return
	}
	c.img = image.NewRGBA(image.Rectangle{Max: size})
	c.m = identity
	c.stack = c.stack[:0]
}

// Clear implements Canvas.
func (c *RasterCanvas) Clear() {
	clear(c.img.Pix)
}

// Save implements Canvas.
func (c *RasterCanvas) Save() {
	c.stack = append(c.stack, c.m)
}

// Restore implements Canvas. An unbalanced Restore resets to identity.
func (c *RasterCanvas) Restore() {
	if len(c.stack) == 0 {
		c.m = identity
		return
	}
	c.m = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// FlipHorizontal implements Canvas.
func (c *RasterCanvas) FlipHorizontal(pivotX float64) {
	c.m = mul(c.m, f64.Aff3{-1, 0, 2 * pivotX, 0, 1, 0})
}

// DrawImage implements Canvas.
func (c *RasterCanvas) DrawImage(img image.Image, x, y, w, h float64) {
	sb := img.Bounds()
	if sb.Empty() || w <= 0 || h <= 0 {
		return
	}
	sx := w / float64(sb.Dx())
	sy := h / float64(sb.Dy())
	local := f64.Aff3{
		sx, 0, x - float64(sb.Min.X)*sx,
		0, sy, y - float64(sb.Min.Y)*sy,
	}
	c.interp.Transform(c.img, mul(c.m, local), img, sb, xdraw.Over, nil)
}

// Image returns the live pixel buffer. It is overwritten by the next draw.
func (c *RasterCanvas) Image() *image.RGBA {
	return c.img
}

// Snapshot returns a copy of the current pixels.
func (c *RasterCanvas) Snapshot() *image.RGBA {
	out := &image.RGBA{
		Pix:    make([]uint8, len(c.img.Pix)),
		Stride: c.img.Stride,
		Rect:   c.img.Rect,
	}
	copy(out.Pix, c.img.Pix)
	return out
}

// mul returns a∘b, the transform applying b first and then a.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
