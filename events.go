package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"lingo/beep"
	"lingo/waveform"
)

// uiSink is where async translation outcomes land; the default goes to
// the running TUI program.
var uiSink = tuiSend

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink forwards recorder events to the TUI and the beep cues.
type tuiSink struct{}

func (tuiSink) RecordingStart() {
	tuiSend(RecordingStartMsg{})
	go beep.PlayStart()
}

func (tuiSink) RecordingStop() {
	tuiSend(RecordingStopMsg{})
	go beep.PlayStop()
}

func (tuiSink) RecordingTick(duration float64) {
	tuiSend(RecordingTickMsg{Duration: duration})
}

func (tuiSink) NoVoiceWarning() {
	tuiSend(NoVoiceMsg{Warn: true})
	beep.PlayError()
}

func (tuiSink) VoiceCleared() {
	tuiSend(NoVoiceMsg{Warn: false})
}

// waveformSink pushes visualizer frames into the TUI.
func waveformSink() waveform.Sink {
	return waveform.SinkFunc(func(fr waveform.Frame) {
		tuiSend(WaveformMsg{Frame: fr})
	})
}
