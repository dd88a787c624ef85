package sampler

import (
	"bytes"
	"image"
	"image/jpeg"
	"math"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/jairathnishant/MentorMe-AI/internal/media"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type Config struct {
	// MaxWidth caps the encoded frame; wider sources are downscaled
	// uniformly so aspect ratio is preserved.
	MaxWidth int
	// JPEGQuality 1-100. Recording samples more often, so it compresses
	// harder; screen shares need legible on-screen text.
	JPEGQuality int
}

func ConfigForMode(mode types.SessionMode) Config {
	if mode == types.ModeScreen {
		return Config{MaxWidth: 1920, JPEGQuality: 70}
	}
	return Config{MaxWidth: 1024, JPEGQuality: 50}
}

// Sampler extracts a scaled, compressed still image from the current
// video frame. The raster surface is reused across captures within a
// session; back-to-back captures allocate nothing new.
type Sampler struct {
	source media.VideoSource
	cfg    Config

	dc  *gg.Context
	buf bytes.Buffer
}

func New(source media.VideoSource, cfg Config) *Sampler {
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 1024
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 50
	}
	return &Sampler{source: source, cfg: cfg}
}

// Capture returns the JPEG payload of the current frame, or ok=false when
// the source is not ready yet (no frame, or zero natural dimensions).
func (s *Sampler) Capture() ([]byte, bool) {
	frame, ok := s.source.LatestFrame()
	if !ok {
		return nil, false
	}
	bounds := frame.Bounds()
	naturalW, naturalH := bounds.Dx(), bounds.Dy()
	if naturalW <= 0 || naturalH <= 0 {
		return nil, false
	}

	targetW, targetH := naturalW, naturalH
	if naturalW > s.cfg.MaxWidth {
		scale := float64(s.cfg.MaxWidth) / float64(naturalW)
		targetW = s.cfg.MaxWidth
		targetH = int(math.Round(float64(naturalH) * scale))
		if targetH < 1 {
			targetH = 1
		}
	}

	if s.dc == nil || s.dc.Width() != targetW || s.dc.Height() != targetH {
		s.dc = gg.NewContext(targetW, targetH)
	}

	dst, isRGBA := s.dc.Image().(*image.RGBA)
	if !isRGBA {
		// gg always backs its context with RGBA; guard anyway.
		s.dc = gg.NewContext(targetW, targetH)
		dst = s.dc.Image().(*image.RGBA)
	}
	if targetW == naturalW && targetH == naturalH {
		xdraw.Draw(dst, dst.Bounds(), frame, bounds.Min, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, bounds, xdraw.Src, nil)
	}

	s.buf.Reset()
	if err := jpeg.Encode(&s.buf, dst, &jpeg.Options{Quality: s.cfg.JPEGQuality}); err != nil {
		return nil, false
	}

	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out, true
}
