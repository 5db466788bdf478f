package recorder

import (
	"context"
	"sync"

	"lingo/audio"
	"lingo/encoder"
)

type Config struct {
	Device *audio.DeviceInfo
	Format string // "flac" or "wav"
	Sink   EventSink
}

// Controller owns the recording session lifecycle. At most one session
// is recording at any time; starting a new session tears the previous
// one down completely before the microphone is re-acquired.
type Controller struct {
	ctx audio.Context
	cfg Config

	// startMu serializes the whole acquisition path so concurrent Start
	// calls cannot both pass the busy check and hold two devices.
	startMu sync.Mutex

	mu   sync.Mutex
	sess *Session
}

func New(ctx audio.Context, cfg Config) *Controller {
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	if cfg.Format == "" {
		cfg.Format = "flac"
	}
	return &Controller{ctx: ctx, cfg: cfg}
}

// Start acquires the microphone and begins a new session. Fails with
// ErrBusy if a session is already recording, ErrPermissionDenied or
// ErrDeviceUnavailable if the device cannot be acquired; in every
// failure case no session is left recording.
func (c *Controller) Start(_ context.Context) (*Session, error) {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	if c.sess != nil && c.sess.State() == StateRecording {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	prev := c.sess
	c.mu.Unlock()

	// The previous device handle must be fully released before a new
	// one is acquired.
	if prev != nil {
		prev.Teardown()
	}

	dev, err := c.ctx.NewCapture(c.cfg.Device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return nil, classifyDeviceErr(err)
	}

	sess, err := newSession(dev, c.cfg.Format, c.cfg.Sink)
	if err != nil {
		dev.Close()
		return nil, err
	}
	if err := sess.begin(); err != nil {
		return nil, classifyDeviceErr(err)
	}

	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()

	c.cfg.Sink.RecordingStart()
	return sess, nil
}

// Stop finalizes the current session and returns the encoded payload.
func (c *Controller) Stop(ctx context.Context) (*Payload, error) {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return nil, ErrNotRecording
	}
	return sess.Stop(ctx)
}

// Session returns the current session, which may be in any state.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// Recording reports whether a session is currently recording.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil && c.sess.State() == StateRecording
}

// Close tears down the current session, if any. Used on view unmount.
func (c *Controller) Close() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess != nil {
		sess.Teardown()
	}
}
