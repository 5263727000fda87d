package client

import (
	"sync"
	"time"
)

// popInterval is the polling step Pop uses while waiting for a frame.
const popInterval = time.Millisecond

// Inbox buffers inbound frames delivered by the transport callback until the
// caller pops them, in insertion order. One producer (the delivery callback)
// and one consumer are supported concurrently; no frame is ever delivered to
// more than one Pop call.
type Inbox struct {
	mu     sync.Mutex
	frames [][]byte
}

// Push appends a copy of frame to the back of the inbox. Safe to call from
// the transport's delivery goroutine.
func (in *Inbox) Push(frame []byte) {
	buf := append([]byte(nil), frame...)
	in.mu.Lock()
	in.frames = append(in.frames, buf)
	in.mu.Unlock()
}

// Pop removes and returns the frame at the front of the inbox, waiting up to
// timeout for one to arrive. Returns nil on timeout. The wait is a bounded
// poll, never an indefinite block.
func (in *Inbox) Pop(timeout time.Duration) []byte {
	deadline := time.Now().Add(timeout)
	for {
		in.mu.Lock()
		if len(in.frames) > 0 {
			frame := in.frames[0]
			in.frames = in.frames[1:]
			in.mu.Unlock()
			return frame
		}
		in.mu.Unlock()

		if !time.Now().Before(deadline) {
			return nil
		}
		time.Sleep(popInterval)
	}
}

// Clear discards all buffered frames.
func (in *Inbox) Clear() {
	in.mu.Lock()
	in.frames = nil
	in.mu.Unlock()
}

// Len reports the number of buffered frames.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.frames)
}
