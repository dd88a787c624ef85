package media

import "sync"

// Recorder accumulates the recorded video chunks a client pushes during a
// continuous-recording session. Chunks arrive in order on one connection;
// the mutex only guards against the final read racing a late chunk.
type Recorder struct {
	mu       sync.Mutex
	buf      []byte
	mimeType string
}

func NewRecorder() *Recorder {
	return &Recorder{mimeType: "video/webm"}
}

func (r *Recorder) Append(chunk []byte, mimeType string) {
	if len(chunk) == 0 {
		return
	}
	r.mu.Lock()
	r.buf = append(r.buf, chunk...)
	if mimeType != "" {
		r.mimeType = mimeType
	}
	r.mu.Unlock()
}

func (r *Recorder) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, len(r.buf))
	copy(out, r.buf)
	return out
}

func (r *Recorder) MimeType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mimeType
}

func (r *Recorder) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}
