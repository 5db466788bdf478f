package recorder

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"lingo/audio"
	"lingo/encoder"
)

// Payload is the finalized recording: all captured chunks, encoded in
// capture order into a single submittable file.
type Payload struct {
	Data     []byte
	Format   string
	Frames   uint64
	Duration time.Duration
}

// Session is one recording attempt. It owns the encoder tap on the
// shared device handle; the waveform visualizer opens its own tap via
// Handle(). Chunks flow capture-callback -> sample buffer -> block
// channel -> encode goroutine, so encoding never blocks the capture
// thread and the final chunk is drained before the session reports
// Stopped.
type Session struct {
	handle *audio.Handle
	tap    *audio.Tap
	enc    encoder.Encoder
	format string
	sink   EventSink

	// feedMu is held for the whole of every chunk delivery; Stop
	// acquires it once to wait out in-flight deliveries before the
	// block channel is closed.
	feedMu sync.Mutex

	mu        sync.Mutex
	state     State
	stopping  bool
	sampleBuf []int16
	frames    uint64
	tickPeak  float64
	started   time.Time

	blockChan  chan []int16
	encodeDone chan struct{}
	stopTick   chan struct{}
	tickOnce   sync.Once
	finalOnce  sync.Once
	tearOnce   sync.Once

	payload    *Payload
	payloadErr error
}

func newSession(dev audio.CaptureDevice, format string, sink EventSink) (*Session, error) {
	enc, err := encoder.New(format)
	if err != nil {
		return nil, err
	}

	s := &Session{
		handle:     audio.NewHandle(dev),
		enc:        enc,
		format:     format,
		sink:       sink,
		state:      StateIdle,
		blockChan:  make(chan []int16, 64),
		encodeDone: make(chan struct{}),
		stopTick:   make(chan struct{}),
	}

	go func() {
		defer close(s.encodeDone)
		for block := range s.blockChan {
			start := time.Now()
			s.enc.EncodeBlock(block)
			s.enc.AddEncodeTime(time.Since(start))
		}
	}()

	return s, nil
}

func (s *Session) begin() error {
	tap, err := s.handle.OpenTap(s.feed)
	if err != nil {
		s.handle.Close()
		close(s.blockChan)
		<-s.encodeDone
		return err
	}

	s.mu.Lock()
	s.tap = tap
	s.state = StateRecording
	s.started = time.Now()
	s.mu.Unlock()

	go s.tickLoop()
	return nil
}

// Handle exposes the shared device handle so the visualizer can open
// its analyser tap alongside the encoder tap.
func (s *Session) Handle() *audio.Handle { return s.handle }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(float64(s.frames) / float64(encoder.SampleRate) * float64(time.Second))
}

// feed runs on the capture thread for every chunk.
func (s *Session) feed(data []byte, frameCount uint32) {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()

	s.mu.Lock()
	if s.state != StateRecording || s.stopping {
		s.mu.Unlock()
		return
	}
	s.frames += uint64(frameCount)

	if len(data) > 1 {
		var sumSquares float64
		for i := 0; i+1 < len(data); i += 2 {
			sample := int16(binary.LittleEndian.Uint16(data[i:]))
			normalized := float64(sample) / 32768.0
			sumSquares += normalized * normalized
		}
		rms := math.Sqrt(sumSquares / float64(len(data)/2))
		if rms > s.tickPeak {
			s.tickPeak = rms
		}
	}

	for i := 0; i+1 < len(data); i += 2 {
		s.sampleBuf = append(s.sampleBuf, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	var blocks [][]int16
	for len(s.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, s.sampleBuf[:encoder.BlockSize])
		s.sampleBuf = s.sampleBuf[encoder.BlockSize:]
		blocks = append(blocks, block)
	}
	s.mu.Unlock()

	for _, block := range blocks {
		s.blockChan <- block
	}
}

func (s *Session) tickLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	mon := newSilenceMonitor()
	for {
		select {
		case <-s.stopTick:
			return
		case <-ticker.C:
			s.mu.Lock()
			hasSpeech := s.tickPeak >= speechRMSThreshold
			s.tickPeak = 0
			elapsed := time.Since(s.started).Seconds()
			s.mu.Unlock()

			s.sink.RecordingTick(elapsed)
			switch mon.Tick(hasSpeech) {
			case silenceWarn, silenceRepeat:
				s.sink.NoVoiceWarning()
			case silenceWarnClear:
				s.sink.VoiceCleared()
			}
		}
	}
}

func (s *Session) stopTicker() {
	s.tickOnce.Do(func() { close(s.stopTick) })
}

// finalize flushes the residual sample buffer, drains the encode
// pipeline, and seals the encoder. Runs exactly once.
func (s *Session) finalize() {
	s.mu.Lock()
	var partial []int16
	if len(s.sampleBuf) > 0 {
		partial = make([]int16, len(s.sampleBuf))
		copy(partial, s.sampleBuf)
		s.sampleBuf = nil
	}
	frames := s.frames
	s.mu.Unlock()

	if partial != nil {
		s.blockChan <- partial
	}
	close(s.blockChan)
	<-s.encodeDone

	if err := s.enc.Close(); err != nil {
		s.payloadErr = err
		return
	}
	s.payload = &Payload{
		Data:     s.enc.Bytes(),
		Format:   s.format,
		Frames:   frames,
		Duration: time.Duration(float64(frames) / float64(encoder.SampleRate) * float64(time.Second)),
	}
}

// Stop signals the capture to finalize and waits for the last chunk to
// clear the encode pipeline before returning the payload. The capture
// callback may deliver a final chunk after the stop signal; that chunk
// is included.
func (s *Session) Stop(ctx context.Context) (*Payload, error) {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return nil, ErrNotRecording
	}
	s.stopping = true
	s.mu.Unlock()

	s.tap.Close()
	// Wait out any chunk delivery that was already in flight.
	s.feedMu.Lock()
	s.feedMu.Unlock() //nolint:staticcheck // empty critical section is the barrier

	s.stopTicker()

	done := make(chan struct{})
	go func() {
		s.finalOnce.Do(s.finalize)
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	s.sink.RecordingStop()

	return s.payload, s.payloadErr
}

// Teardown force-releases everything the session holds: the device
// handle (all taps), the tick loop, and the encode pipeline. Safe to
// call in any state, any number of times. Used on unmount and before
// re-acquisition.
func (s *Session) Teardown() {
	s.tearOnce.Do(func() {
		s.mu.Lock()
		s.stopping = true
		wasRecording := s.state == StateRecording
		s.mu.Unlock()

		s.handle.Close()
		s.feedMu.Lock()
		s.feedMu.Unlock() //nolint:staticcheck // barrier for in-flight delivery
		s.stopTicker()
		s.finalOnce.Do(s.finalize)

		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		if wasRecording {
			s.sink.RecordingStop()
		}
	})
}
