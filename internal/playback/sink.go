package playback

import "sync"

// BufferSink holds the clip the browser audio element is currently playing
// out. The HTTP layer serves Current() and reports natural completion via
// Done(); Reset drops the clip so a preempted one is never audible again.
type BufferSink struct {
	mu   sync.Mutex
	clip []byte
	done chan struct{}
}

// NewBufferSink returns an empty sink.
func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

// Play replaces the held clip and returns the completion channel for it.
func (s *BufferSink) Play(clip []byte) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clip = clip
	s.done = make(chan struct{})
	return s.done
}

// Reset drops the held clip. The previous completion channel is abandoned,
// not closed; its playback generation was already superseded.
func (s *BufferSink) Reset() {
	s.mu.Lock()
	s.clip = nil
	s.done = nil
	s.mu.Unlock()
}

// Done signals that the client finished playing the held clip.
func (s *BufferSink) Done() {
	s.mu.Lock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.clip = nil
	s.mu.Unlock()
}

// Current returns the clip awaiting or undergoing playout, or nil.
func (s *BufferSink) Current() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clip
}
