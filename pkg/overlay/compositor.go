package overlay

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/teslashibe/go-facefilter/pkg/tracking"
)

// Compositor renders an Asset onto a Canvas at smoothed placements.
type Compositor struct {
	canvas Canvas
	asset  *Asset
}

// NewCompositor creates a compositor. asset may be nil or still loading;
// frames are then cleared and nothing is drawn.
func NewCompositor(canvas Canvas, asset *Asset) *Compositor {
	return &Compositor{canvas: canvas, asset: asset}
}

// Sync resizes the canvas to the displayed size if it changed.
// It reports whether a resize happened.
func (c *Compositor) Sync(display image.Point) bool {
	if display.X <= 0 || display.Y <= 0 || display == c.canvas.Size() {
		return false
	}
	c.canvas.Resize(display)
	return true
}

// Clear blanks the canvas.
func (c *Compositor) Clear() {
	c.canvas.Clear()
}

// Draw clears the canvas and draws one asset instance per placement,
// centered and scaled to it. Mirrored instances are flipped about their
// own center without affecting the others. It returns the number of
// image draws performed.
func (c *Compositor) Draw(placements []tracking.Placement) int {
	c.canvas.Clear()

	img := c.asset.Image()
	if img == nil {
		return 0
	}

	drawn := 0
	for _, p := range placements {
		if p.Width <= 0 || p.Height <= 0 {
			continue
		}
		x := p.Center.X - p.Width/2
		y := p.Center.Y - p.Height/2
		if p.Mirrored {
			c.canvas.Save()
			c.canvas.FlipHorizontal(p.Center.X)
			c.canvas.DrawImage(img, x, y, p.Width, p.Height)
			c.canvas.Restore()
		} else {
			c.canvas.DrawImage(img, x, y, p.Width, p.Height)
		}
		drawn++
	}
	return drawn
}

// Flatten composites layer over frame into a new image the size of frame.
// A layer of a different size is scaled to fit.
func Flatten(frame, layer image.Image) *image.RGBA {
	fb := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, fb.Dx(), fb.Dy()))
	xdraw.Draw(out, out.Bounds(), frame, fb.Min, xdraw.Src)
	if layer == nil {
		return out
	}

	lb := layer.Bounds()
	if lb.Size() == fb.Size() {
		xdraw.Draw(out, out.Bounds(), layer, lb.Min, xdraw.Over)
	} else {
		xdraw.ApproxBiLinear.Scale(out, out.Bounds(), layer, lb, xdraw.Over, nil)
	}
	return out
}
