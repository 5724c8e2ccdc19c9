// Package overlay draws a raster asset onto a transparent layer aligned to
// tracked face placements.
package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoding

	"github.com/teslashibe/go-facefilter/internal/httpc"
)

// ErrUnsupportedAsset is returned when the asset bytes are not a known
// image format.
var ErrUnsupportedAsset = errors.New("overlay: unsupported asset format")

// Asset is an overlay image loaded once, in the background, from a URL or
// a file path. Until it is loaded Image returns nil; a failed load leaves
// it that way for good.
type Asset struct {
	ref    string
	logger *slog.Logger

	img  atomic.Pointer[image.RGBA]
	once sync.Once
	done chan struct{}
	err  error
}

// NewAsset creates an unloaded asset. ref is an http(s) URL or a local path.
func NewAsset(ref string, logger *slog.Logger) *Asset {
	if logger == nil {
		logger = slog.Default()
	}
	return &Asset{ref: ref, logger: logger, done: make(chan struct{})}
}

// AssetFromImage returns an asset that is already loaded with img.
func AssetFromImage(img image.Image) *Asset {
	a := NewAsset("memory", nil)
	a.once.Do(func() {
		a.img.Store(toRGBA(img))
		close(a.done)
	})
	return a
}

// Load fetches and decodes the asset. Only the first call does any work;
// later calls wait for it and return the same error.
func (a *Asset) Load(ctx context.Context) error {
	a.once.Do(func() {
		defer close(a.done)
		img, err := a.load(ctx)
		if err != nil {
			a.err = err
			a.logger.Warn("overlay asset load failed", "ref", a.ref, "error", err)
			return
		}
		a.img.Store(img)
		b := img.Bounds()
		a.logger.Info("overlay asset loaded", "ref", a.ref, "width", b.Dx(), "height", b.Dy())
	})
	<-a.done
	return a.err
}

// LoadAsync starts Load in the background. Use Done to wait for it.
func (a *Asset) LoadAsync(ctx context.Context) {
	go a.Load(ctx)
}

// Done is closed once loading has finished, successfully or not.
func (a *Asset) Done() <-chan struct{} {
	return a.done
}

// Err returns the load error after Done is closed.
func (a *Asset) Err() error {
	select {
	case <-a.done:
		return a.err
	default:
		return nil
	}
}

// Ref returns the asset reference.
func (a *Asset) Ref() string {
	return a.ref
}

// Loaded reports whether the image is available.
func (a *Asset) Loaded() bool {
	return a != nil && a.img.Load() != nil
}

// Image returns the decoded image, or nil if not loaded.
func (a *Asset) Image() image.Image {
	if a == nil {
		return nil
	}
	if img := a.img.Load(); img != nil {
		return img
	}
	return nil
}

// AspectRatio returns width/height of the loaded image, or 1 when unloaded.
func (a *Asset) AspectRatio() float64 {
	if a == nil {
		return 1
	}
	img := a.img.Load()
	if img == nil || img.Bounds().Dy() == 0 {
		return 1
	}
	b := img.Bounds()
	return float64(b.Dx()) / float64(b.Dy())
}

func (a *Asset) load(ctx context.Context) (*image.RGBA, error) {
	if a.ref == "" {
		return nil, errors.New("overlay: empty asset reference")
	}

	var data []byte
	var err error
	if strings.HasPrefix(a.ref, "http://") || strings.HasPrefix(a.ref, "https://") {
		data, err = httpc.Fetch(ctx, a.ref)
	} else {
		data, err = os.ReadFile(a.ref)
	}
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAsset, a.ref)
	}
	if err != nil {
		return nil, fmt.Errorf("decode asset: %w", err)
	}
	return toRGBA(img), nil
}

// toRGBA converts to premultiplied RGBA once so per-frame draws take the
// fast path.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}
