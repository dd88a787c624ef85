package media

import (
	"sync"

	"github.com/google/uuid"
)

type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// Track mirrors one device track of an acquired capture stream. Ended
// callbacks fire when the remote side revokes access (for example the
// OS screen-share toolbar), which is distinct from a local Stop.
type Track struct {
	ID   uuid.UUID
	Kind TrackKind

	mu      sync.Mutex
	stopped bool
	onEnded []func()
}

func newTrack(kind TrackKind) *Track {
	return &Track{ID: uuid.New(), Kind: kind}
}

func (t *Track) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *Track) OnEnded(fn func()) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	t.onEnded = append(t.onEnded, fn)
	t.mu.Unlock()
}

// End marks the track stopped and fires ended callbacks exactly once.
func (t *Track) End() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	callbacks := t.onEnded
	t.onEnded = nil
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Stream is the handle for one acquired capture device. It is exclusively
// owned by a single session instance for its lifetime.
type Stream struct {
	ID     uuid.UUID
	tracks []*Track
	video  *FrameMailbox
}

func newStream(tracks []*Track, video *FrameMailbox) *Stream {
	return &Stream{ID: uuid.New(), tracks: tracks, video: video}
}

func (s *Stream) Tracks() []*Track {
	if s == nil {
		return nil
	}
	return s.tracks
}

// VideoTrack returns the primary track end-of-stream listeners attach to.
func (s *Stream) VideoTrack() *Track {
	if s == nil {
		return nil
	}
	for _, t := range s.tracks {
		if t.Kind == TrackVideo {
			return t
		}
	}
	return nil
}

// Video is the frame source the sampler reads from.
func (s *Stream) Video() *FrameMailbox {
	if s == nil {
		return nil
	}
	return s.video
}

// StopAll stops every track without firing ended callbacks. Used on every
// local teardown path so the device is never left held.
func (s *Stream) StopAll() {
	if s == nil {
		return
	}
	for _, t := range s.tracks {
		t.Stop()
	}
}
