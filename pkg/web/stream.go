package web

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"

	"github.com/teslashibe/go-facefilter/pkg/camera"
	"github.com/teslashibe/go-facefilter/pkg/overlay"
)

type composite struct {
	frame camera.Frame
	layer *image.RGBA
}

// OnComposite implements session.FrameSink. Frames are dropped when no
// preview client is connected or the encoder is still busy.
func (s *Server) OnComposite(frame camera.Frame, layer *image.RGBA) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	c := composite{frame: frame, layer: layer}
	select {
	case s.frames <- c:
		return
	default:
	}
	select {
	case <-s.frames:
	default:
	}
	select {
	case s.frames <- c:
	default:
	}
}

func (s *Server) encodeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-s.frames:
			data, err := encodeComposite(c, s.quality())
			if err != nil {
				s.logger.Debug("preview encode failed", "error", err)
				continue
			}
			s.cameraHub.BroadcastBinary(data)
		}
	}
}

func (s *Server) quality() int {
	if s.cameraManager == nil {
		return jpeg.DefaultQuality
	}
	return s.cameraManager.GetConfig().Quality
}

// encodeComposite flattens the overlay layer onto the frame as JPEG.
func encodeComposite(c composite, quality int) ([]byte, error) {
	var layer image.Image
	if c.layer != nil {
		layer = c.layer
	}
	img := overlay.Flatten(c.frame.Image, layer)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
