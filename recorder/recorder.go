package recorder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBusy is returned by Start while a session is still recording.
	ErrBusy = errors.New("recorder: session already recording")
	// ErrNotRecording is returned by Stop when no session is recording.
	ErrNotRecording = errors.New("recorder: no session recording")
	// ErrPermissionDenied means the user or OS refused microphone access.
	ErrPermissionDenied = errors.New("recorder: microphone access denied")
	// ErrDeviceUnavailable means the platform has no usable capture device.
	ErrDeviceUnavailable = errors.New("recorder: capture device unavailable")
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EventSink abstracts the display layer so the TUI and the headless
// test mode receive the same recording events.
type EventSink interface {
	RecordingStart()
	RecordingStop()
	RecordingTick(seconds float64)
	NoVoiceWarning()
	VoiceCleared()
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordingStart()       {}
func (NopSink) RecordingStop()        {}
func (NopSink) RecordingTick(float64) {}
func (NopSink) NoVoiceWarning()       {}
func (NopSink) VoiceCleared()         {}

// classifyDeviceErr maps opaque platform errors onto the recorder's
// error taxonomy so callers can branch on errors.Is.
func classifyDeviceErr(err error) error {
	msg := strings.ToLower(err.Error())
	for _, kw := range []string{"denied", "permission", "unauthorized", "not allowed"} {
		if strings.Contains(msg, kw) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
}
