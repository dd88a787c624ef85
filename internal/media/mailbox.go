package media

import (
	"image"
	"sync"
)

// VideoSource is what the frame sampler reads. A source that is not ready
// yet reports ok=false; that is "try again next tick", not an error.
type VideoSource interface {
	LatestFrame() (image.Image, bool)
}

// FrameMailbox is a single-slot frame buffer: a new frame overwrites an
// unconsumed one. Frames are dropped, never queued — the sampler only ever
// wants the most recent picture of the world.
type FrameMailbox struct {
	mu     sync.RWMutex
	frame  image.Image
	closed bool
}

func NewFrameMailbox() *FrameMailbox {
	return &FrameMailbox{}
}

// Publish replaces the current frame. Non-blocking; no-op after Close.
// The caller must not mutate img after publishing.
func (m *FrameMailbox) Publish(img image.Image) {
	if img == nil {
		return
	}
	m.mu.Lock()
	if !m.closed {
		m.frame = img
	}
	m.mu.Unlock()
}

func (m *FrameMailbox) LatestFrame() (image.Image, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.frame == nil {
		return nil, false
	}
	return m.frame, true
}

func (m *FrameMailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.frame = nil
	m.mu.Unlock()
}
