package services

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

const (
	posterWidth  = 720
	posterHeight = 405
)

// PosterRenderer draws the score card image attached to a session report.
type PosterRenderer interface {
	Render(report *types.SessionReport) (bytes.Buffer, error)
}

type posterRenderer struct {
	log *logger.Logger

	titleFace  font.Face
	scoreFace  font.Face
	detailFace font.Face
}

// NewPosterRenderer loads the poster font from POSTER_FONT. The env var is
// optional; without it gg's built-in face is used and the card just looks
// plainer.
func NewPosterRenderer(log *logger.Logger) (PosterRenderer, error) {
	serviceLog := log.With("service", "PosterRenderer")
	pr := &posterRenderer{log: serviceLog}

	fontPath := strings.TrimSpace(os.Getenv("POSTER_FONT"))
	if fontPath == "" {
		serviceLog.Warn("POSTER_FONT not set, rendering posters with the built-in face")
		return pr, nil
	}
	serviceLog.Info("Loading poster font", "font", fontPath)

	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read poster font: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse poster font: %w", err)
	}
	newFace := func(size float64) font.Face {
		return truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
	}
	pr.titleFace = newFace(28)
	pr.scoreFace = newFace(96)
	pr.detailFace = newFace(18)
	return pr, nil
}

func (pr *posterRenderer) Render(report *types.SessionReport) (bytes.Buffer, error) {
	var buf bytes.Buffer
	if report == nil {
		return buf, fmt.Errorf("report required")
	}

	dc := gg.NewContext(posterWidth, posterHeight)

	dc.SetColor(color.NRGBA{R: 0x12, G: 0x18, B: 0x27, A: 0xFF})
	dc.DrawRectangle(0, 0, posterWidth, posterHeight)
	dc.Fill()

	// Accent bar keyed to the score band.
	dc.SetColor(scoreColor(report.OverallScore))
	dc.DrawRectangle(0, 0, 10, posterHeight)
	dc.Fill()

	if pr.titleFace != nil {
		dc.SetFontFace(pr.titleFace)
	}
	dc.SetColor(color.White)
	dc.DrawString(truncateLine(report.ActivityType, 40), 48, 64)

	if pr.detailFace != nil {
		dc.SetFontFace(pr.detailFace)
	}
	dc.SetColor(color.NRGBA{R: 0x9C, G: 0xA6, B: 0xB8, A: 0xFF})
	meta := fmt.Sprintf("%s  ·  %s", report.StartTime.Format("Jan 2, 2006 15:04"), formatDuration(report.DurationSeconds))
	dc.DrawString(meta, 48, 96)

	if pr.scoreFace != nil {
		dc.SetFontFace(pr.scoreFace)
	}
	dc.SetColor(scoreColor(report.OverallScore))
	score := fmt.Sprintf("%d", report.OverallScore)
	tw, th := dc.MeasureString(score)
	dc.DrawString(score, posterWidth-tw-64, 96+th)

	if pr.detailFace != nil {
		dc.SetFontFace(pr.detailFace)
	}
	dc.SetColor(color.White)
	y := float64(posterHeight) - 120
	for i, insight := range report.KeyInsights {
		if i >= 3 {
			break
		}
		dc.DrawString("• "+truncateLine(insight, 70), 48, y)
		y += 30
	}

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode poster PNG: %w", err)
	}
	return buf, nil
}

func scoreColor(score int) color.NRGBA {
	switch {
	case score >= 75:
		return color.NRGBA{R: 0x3F, G: 0xB9, B: 0x50, A: 0xFF}
	case score >= 40:
		return color.NRGBA{R: 0xE8, G: 0xA8, B: 0x2E, A: 0xFF}
	default:
		return color.NRGBA{R: 0xD9, G: 0x48, B: 0x3B, A: 0xFF}
	}
}

func truncateLine(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", m, s)
}
