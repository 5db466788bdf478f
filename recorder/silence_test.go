package recorder

import "testing"

func TestSilenceMonitorWarnsAfterWindow(t *testing.T) {
	m := newSilenceMonitor()
	warnAt := int(silenceWarnEvery / tickInterval)

	for i := 0; i < warnAt-1; i++ {
		if ev := m.Tick(false); ev != silenceNone {
			t.Fatalf("tick %d: event %d before window filled", i, ev)
		}
	}
	if ev := m.Tick(false); ev != silenceWarn {
		t.Fatalf("expected warn at window boundary, got %d", ev)
	}
}

func TestSilenceMonitorHysteresis(t *testing.T) {
	m := newSilenceMonitor()
	warnAt := int(silenceWarnEvery / tickInterval)

	for i := 0; i < warnAt; i++ {
		m.Tick(false)
	}

	// A single speech tick is above speechMinRatio but below the
	// clear threshold, so the warning must hold.
	if ev := m.Tick(true); ev != silenceNone {
		t.Fatalf("warning cleared too eagerly: %d", ev)
	}

	// Enough speech to cross the clear threshold.
	cleared := false
	for i := 0; i < warnAt; i++ {
		if ev := m.Tick(true); ev == silenceWarnClear {
			cleared = true
			break
		}
	}
	if !cleared {
		t.Fatal("warning never cleared despite sustained speech")
	}
}

func TestSilenceMonitorRepeats(t *testing.T) {
	m := newSilenceMonitor()
	warnAt := int(silenceWarnEvery / tickInterval)

	for i := 0; i < warnAt; i++ {
		m.Tick(false)
	}

	repeats := 0
	for i := 0; i < warnAt*2; i++ {
		if ev := m.Tick(false); ev == silenceRepeat {
			repeats++
		}
	}
	if repeats != 2 {
		t.Errorf("repeat warnings = %d over two windows, want 2", repeats)
	}
}

func TestSilenceMonitorSpeechNeverWarns(t *testing.T) {
	m := newSilenceMonitor()
	for i := 0; i < 200; i++ {
		// One speech tick in five keeps the ratio above threshold.
		if ev := m.Tick(i%5 == 0); ev != silenceNone {
			t.Fatalf("tick %d: unexpected event %d", i, ev)
		}
	}
}
