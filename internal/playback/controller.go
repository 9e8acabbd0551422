// Package playback owns the widget's single audio output. There is exactly
// one logical playback slot; a new request always preempts whatever is
// playing — no queueing, last writer wins.
package playback

import (
	"context"
	"log"
	"sync"
)

// Synthesizer produces one narration clip for the given text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Sink delivers synthesized clips to the audio output. Play replaces the
// current clip and returns a channel closed when playout finishes
// naturally. Reset halts the current clip immediately (used on preemption).
type Sink interface {
	Play(clip []byte) <-chan struct{}
	Reset()
}

// State of the playback slot.
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
)

// Controller arbitrates the playback slot. Synthesis failures are
// non-fatal: the slot returns to idle and the text reply stays visible.
type Controller struct {
	synth Synthesizer
	sink  Sink

	mu     sync.Mutex
	state  State
	source string
	gen    uint64
	cancel context.CancelFunc
	auto   bool
}

// New returns an idle controller with automatic narration enabled.
func New(synth Synthesizer, sink Sink) *Controller {
	return &Controller{synth: synth, sink: sink, state: StateIdle, auto: true}
}

// SetAutoNarrate toggles automatic narration of new bot replies. Manual
// per-message playback is unaffected.
func (c *Controller) SetAutoNarrate(on bool) {
	c.mu.Lock()
	c.auto = on
	c.mu.Unlock()
}

// AutoNarrate reports whether automatic narration is enabled.
func (c *Controller) AutoNarrate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auto
}

// State returns the slot state and the text being narrated, if any.
func (c *Controller) State() (State, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.source
}

// NarrateIfEnabled plays text only when automatic narration is on.
func (c *Controller) NarrateIfEnabled(ctx context.Context, text string) {
	if c.AutoNarrate() {
		c.Play(ctx, text)
	}
}

// Play claims the slot for text: any in-flight synthesis is cancelled, any
// audible clip is halted, then the new clip is synthesized and played.
// Play returns once the slot is claimed; synthesis and playout proceed
// asynchronously.
func (c *Controller) Play(ctx context.Context, text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.sink.Reset()
	c.gen++
	gen := c.gen
	sctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = StatePlaying
	c.source = text
	c.mu.Unlock()

	go func() {
		clip, err := c.synth.Synthesize(sctx, text)
		if err != nil {
			if sctx.Err() == nil {
				log.Printf("playback: synthesis failed: %v", err)
			}
			c.settle(gen)
			return
		}
		c.mu.Lock()
		if gen != c.gen {
			// Preempted while synthesizing; the winner owns the sink.
			c.mu.Unlock()
			return
		}
		done := c.sink.Play(clip)
		c.mu.Unlock()
		select {
		case <-done:
			c.settle(gen)
		case <-sctx.Done():
		}
	}()
}

// Stop halts playback and returns the slot to idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.sink.Reset()
	c.gen++
	c.state = StateIdle
	c.source = ""
	c.mu.Unlock()
}

// settle returns the slot to idle unless a newer request claimed it.
func (c *Controller) settle(gen uint64) {
	c.mu.Lock()
	if gen == c.gen {
		c.state = StateIdle
		c.source = ""
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
	}
	c.mu.Unlock()
}
