package media

import (
	"image"
	"testing"
)

func TestMailboxOverwritesUnconsumedFrame(t *testing.T) {
	m := NewFrameMailbox()

	first := image.NewRGBA(image.Rect(0, 0, 10, 10))
	second := image.NewRGBA(image.Rect(0, 0, 20, 20))
	m.Publish(first)
	m.Publish(second)

	got, ok := m.LatestFrame()
	if !ok {
		t.Fatal("expected a frame after publish")
	}
	if got != second {
		t.Fatal("mailbox returned a stale frame, want latest")
	}

	// Reading does not consume; the latest frame stays available.
	again, ok := m.LatestFrame()
	if !ok || again != second {
		t.Fatal("latest frame should remain readable")
	}
}

func TestMailboxEmptyAndClosed(t *testing.T) {
	m := NewFrameMailbox()
	if _, ok := m.LatestFrame(); ok {
		t.Fatal("empty mailbox should report no frame")
	}

	m.Publish(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	m.Close()
	if _, ok := m.LatestFrame(); ok {
		t.Fatal("closed mailbox should report no frame")
	}
	m.Publish(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if _, ok := m.LatestFrame(); ok {
		t.Fatal("publish after close should be a no-op")
	}
}

func TestTrackEndFiresCallbacksOnce(t *testing.T) {
	track := newTrack(TrackVideo)
	fired := 0
	track.OnEnded(func() { fired++ })

	track.End()
	track.End()
	if fired != 1 {
		t.Fatalf("ended callbacks fired %d times, want 1", fired)
	}
	if !track.Stopped() {
		t.Fatal("ended track should be stopped")
	}
}

func TestStreamStopAllDoesNotFireEnded(t *testing.T) {
	mailbox := NewFrameMailbox()
	stream := newStream([]*Track{newTrack(TrackVideo), newTrack(TrackAudio)}, mailbox)

	fired := false
	stream.VideoTrack().OnEnded(func() { fired = true })

	stream.StopAll()
	for _, tr := range stream.Tracks() {
		if !tr.Stopped() {
			t.Fatal("StopAll left a track running")
		}
	}
	if fired {
		t.Fatal("local stop must not fire the external-revocation callback")
	}
}
