package audio

import (
	"errors"
	"sync"
)

// ErrHandleClosed is returned when opening a tap on a handle that has
// already been released.
var ErrHandleClosed = errors.New("audio: handle closed")

// Handle shares one capture device between independent consumers.
// Each consumer opens its own tap; captured chunks are fanned out to
// every tap in capture order. The device starts when the first tap
// opens and is released only after the last tap has closed, so neither
// consumer can pull the device out from under the other.
type Handle struct {
	dev CaptureDevice

	mu      sync.Mutex
	taps    []*Tap
	started bool
	closed  bool
	onClose func()

	// teardown must run exactly once no matter how many release paths race
	closeOnce sync.Once
}

// Tap is one consumer's view of the shared device. Closing a tap is
// idempotent; the handle stays open until every tap has closed.
type Tap struct {
	h    *Handle
	cb   DataCallback
	once sync.Once
}

func NewHandle(dev CaptureDevice) *Handle {
	return &Handle{dev: dev}
}

// OnClose registers a hook invoked once, after the device has been
// stopped and released. Must be called before the last tap closes.
func (h *Handle) OnClose(fn func()) {
	h.mu.Lock()
	h.onClose = fn
	h.mu.Unlock()
}

// OpenTap registers a consumer callback. The first tap starts the
// underlying device; if the device refuses to start, the tap is not
// registered and the error is returned.
func (h *Handle) OpenTap(cb DataCallback) (*Tap, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHandleClosed
	}

	t := &Tap{h: h, cb: cb}
	h.taps = append(h.taps, t)

	if !h.started {
		h.dev.SetCallback(h.fanOut)
		if err := h.dev.Start(); err != nil {
			h.taps = h.taps[:0]
			h.dev.ClearCallback()
			return nil, err
		}
		h.started = true
	}
	return t, nil
}

// fanOut runs on the capture thread. Every open tap sees the same
// chunk, in the order the device produced it.
func (h *Handle) fanOut(data []byte, frameCount uint32) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	taps := make([]*Tap, len(h.taps))
	copy(taps, h.taps)
	h.mu.Unlock()

	for _, t := range taps {
		t.cb(data, frameCount)
	}
}

// Close releases the tap. Safe to call more than once. When the last
// tap closes, the device is stopped, its callback cleared, and the
// handle transitions to closed.
func (t *Tap) Close() {
	t.once.Do(func() { t.h.release(t) })
}

func (h *Handle) release(t *Tap) {
	h.mu.Lock()
	for i, o := range h.taps {
		if o == t {
			h.taps = append(h.taps[:i], h.taps[i+1:]...)
			break
		}
	}
	last := len(h.taps) == 0 && !h.closed
	if last {
		h.closed = true
	}
	h.mu.Unlock()

	if last {
		h.teardown()
	}
}

// Close force-releases every remaining tap and the device. Used on
// view unmount, where waiting for consumers to close themselves would
// leak the device. Idempotent.
func (h *Handle) Close() {
	h.mu.Lock()
	taps := make([]*Tap, len(h.taps))
	copy(taps, h.taps)
	h.mu.Unlock()

	for _, t := range taps {
		t.Close()
	}

	h.mu.Lock()
	already := h.closed
	h.closed = true
	h.mu.Unlock()
	if !already {
		h.teardown()
	}
}

// Closed reports whether the handle has fully released the device.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Handle) teardown() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		started := h.started
		onClose := h.onClose
		h.mu.Unlock()

		if started {
			h.dev.Stop()
		}
		h.dev.ClearCallback()
		h.dev.Close()
		if onClose != nil {
			onClose()
		}
	})
}
