package sampler

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/jairathnishant/MentorMe-AI/internal/media"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

func solidFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 80, G: 120, B: 200, A: 255})
		}
	}
	return img
}

func decodeDims(t *testing.T, payload []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("decode captured jpeg: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestCaptureNotReady(t *testing.T) {
	mailbox := media.NewFrameMailbox()
	s := New(mailbox, ConfigForMode(types.ModeCamera))

	if payload, ok := s.Capture(); ok || payload != nil {
		t.Fatalf("Capture on empty source = (%v, %v), want (nil, false)", payload, ok)
	}
}

func TestCaptureZeroDimensions(t *testing.T) {
	mailbox := media.NewFrameMailbox()
	mailbox.Publish(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	s := New(mailbox, ConfigForMode(types.ModeCamera))

	if _, ok := s.Capture(); ok {
		t.Fatal("Capture with zero-dimension frame should report not ready")
	}
}

func TestCaptureDownscalePreservesAspect(t *testing.T) {
	cases := []struct {
		name  string
		mode  types.SessionMode
		srcW  int
		srcH  int
		wantW int
		wantH int
	}{
		{name: "camera_4_3_downscaled", mode: types.ModeCamera, srcW: 2048, srcH: 1536, wantW: 1024, wantH: 768},
		{name: "camera_16_9_downscaled", mode: types.ModeCamera, srcW: 1920, srcH: 1080, wantW: 1024, wantH: 576},
		{name: "camera_small_untouched", mode: types.ModeCamera, srcW: 640, srcH: 480, wantW: 640, wantH: 480},
		{name: "screen_wide_downscaled", mode: types.ModeScreen, srcW: 3840, srcH: 2160, wantW: 1920, wantH: 1080},
		{name: "screen_at_limit_untouched", mode: types.ModeScreen, srcW: 1920, srcH: 1200, wantW: 1920, wantH: 1200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mailbox := media.NewFrameMailbox()
			mailbox.Publish(solidFrame(tc.srcW, tc.srcH))
			s := New(mailbox, ConfigForMode(tc.mode))

			payload, ok := s.Capture()
			if !ok {
				t.Fatal("Capture returned not ready for a published frame")
			}
			gotW, gotH := decodeDims(t, payload)
			if gotW != tc.wantW || gotH != tc.wantH {
				t.Fatalf("captured %dx%d, want %dx%d", gotW, gotH, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestCaptureReusesSurface(t *testing.T) {
	mailbox := media.NewFrameMailbox()
	mailbox.Publish(solidFrame(2048, 1536))
	s := New(mailbox, ConfigForMode(types.ModeCamera))

	if _, ok := s.Capture(); !ok {
		t.Fatal("first capture failed")
	}
	surface := s.dc
	if _, ok := s.Capture(); !ok {
		t.Fatal("second capture failed")
	}
	if s.dc != surface {
		t.Fatal("raster surface was reallocated between same-size captures")
	}
}
