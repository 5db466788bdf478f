// Package waveform renders live microphone levels while a recording is
// in progress. It opens its own tap on the shared device handle, so the
// recorder's encode pipeline and the visualizer never compete for the
// capture callback, and computes a small rolling window of RMS levels
// pushed to the display at a fixed frame rate.
package waveform

import (
	"encoding/binary"
	"math"
	"strings"
	"sync"
	"time"

	"lingo/audio"
)

const (
	// DefaultBars is the number of level bins kept in the rolling window.
	DefaultBars = 48
	// frameInterval paces the render loop at 20 fps.
	frameInterval = 50 * time.Millisecond
)

// Frame is one render tick of the visualizer.
type Frame struct {
	// Levels is the rolling window of RMS levels, oldest first,
	// each in [0, 1].
	Levels []float64
	// Level is the most recent RMS level.
	Level float64
}

// Sink receives frames from the render loop. After Stop returns, no
// further calls are made.
type Sink interface {
	RenderFrame(Frame)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Frame)

func (f SinkFunc) RenderFrame(fr Frame) { f(fr) }

// Visualizer consumes audio through its own tap and drives a
// self-rescheduling render loop until stopped.
type Visualizer struct {
	tap  *audio.Tap
	sink Sink

	mu       sync.Mutex
	levels   []float64
	tickPeak float64

	done     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
}

// Start opens an analyser tap on the handle and begins rendering.
func Start(h *audio.Handle, sink Sink) (*Visualizer, error) {
	v := &Visualizer{
		sink:     sink,
		levels:   make([]float64, DefaultBars),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	tap, err := h.OpenTap(v.consume)
	if err != nil {
		return nil, err
	}
	v.tap = tap
	go v.renderLoop()
	return v, nil
}

// consume runs on the capture thread for every chunk.
func (v *Visualizer) consume(data []byte, _ uint32) {
	if len(data) < 2 {
		return
	}
	var sumSquares float64
	n := len(data) / 2
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(data[i*2:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	rms := math.Sqrt(sumSquares / float64(n))

	v.mu.Lock()
	if rms > v.tickPeak {
		v.tickPeak = rms
	}
	v.mu.Unlock()
}

func (v *Visualizer) renderLoop() {
	defer close(v.loopDone)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-v.done:
			return
		case <-ticker.C:
			v.sink.RenderFrame(v.advance())
		}
	}
}

// advance shifts the rolling window by one bin and returns a snapshot.
func (v *Visualizer) advance() Frame {
	v.mu.Lock()
	level := v.tickPeak
	v.tickPeak = 0
	copy(v.levels, v.levels[1:])
	v.levels[len(v.levels)-1] = level
	snapshot := make([]float64, len(v.levels))
	copy(snapshot, v.levels)
	v.mu.Unlock()
	return Frame{Levels: snapshot, Level: level}
}

// Stop cancels the render loop and releases the analyser tap. It does
// not return until the loop has exited, so the sink is never called
// after Stop. Safe to call more than once.
func (v *Visualizer) Stop() {
	v.stopOnce.Do(func() {
		close(v.done)
		<-v.loopDone
		v.tap.Close()
	})
}

var sparkRunes = []rune(" ▁▂▃▄▅▆▇█")

// Sparkline renders levels as a fixed-width bar string. Levels above
// the 0.5 mark saturate so quiet speech still moves the display.
func Sparkline(levels []float64, width int) string {
	if width <= 0 || len(levels) == 0 {
		return ""
	}
	var b strings.Builder
	start := 0
	if len(levels) > width {
		start = len(levels) - width
	}
	for _, lv := range levels[start:] {
		scaled := lv * 2
		if scaled > 1 {
			scaled = 1
		}
		idx := int(scaled * float64(len(sparkRunes)-1))
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
