package media

import (
	"context"
	"errors"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

// CaptureGrant is the device-access outcome reported by the capturing
// client when it asked the platform for the camera or screen.
type CaptureGrant string

const (
	GrantGranted       CaptureGrant = "granted"
	GrantDenied        CaptureGrant = "denied"
	GrantPolicyBlocked CaptureGrant = "policy"
	GrantFailed        CaptureGrant = "failed"
)

// Denial reasons must stay distinguishable; the session error message
// depends on which one occurred.
var (
	ErrPermissionDenied = errors.New("capture permission denied or cancelled")
	ErrPolicyBlocked    = errors.New("capture blocked by hosting policy")
	ErrCaptureFailed    = errors.New("capture device unavailable")
)

// CaptureProvider acquires the capture stream for a session. Injected into
// the session loop so the loop never touches a platform global.
type CaptureProvider interface {
	Acquire(ctx context.Context, mode types.SessionMode, grant CaptureGrant) (*Stream, error)
}

// IngestProvider backs streams with frames pushed over the ingest API.
// A camera acquisition carries video+audio tracks; a screen share carries
// a single video track (surface preference is a client-side hint only).
type IngestProvider struct {
	log *logger.Logger
}

func NewIngestProvider(log *logger.Logger) *IngestProvider {
	return &IngestProvider{log: log.With("component", "IngestProvider")}
}

func (p *IngestProvider) Acquire(ctx context.Context, mode types.SessionMode, grant CaptureGrant) (*Stream, error) {
	switch grant {
	case GrantGranted:
	case GrantDenied:
		return nil, ErrPermissionDenied
	case GrantPolicyBlocked:
		return nil, ErrPolicyBlocked
	default:
		return nil, ErrCaptureFailed
	}

	mailbox := NewFrameMailbox()
	tracks := []*Track{newTrack(TrackVideo)}
	if mode == types.ModeCamera {
		tracks = append(tracks, newTrack(TrackAudio))
	}
	p.log.Debug("Capture stream acquired", "mode", mode, "tracks", len(tracks))
	return newStream(tracks, mailbox), nil
}
