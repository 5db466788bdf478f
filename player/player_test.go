package player

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFindNoPlayers(t *testing.T) {
	_, err := find([]string{"definitely-not-a-player-binary"})
	var np *ErrNoPlayer
	if !errors.As(err, &np) {
		t.Fatalf("err = %v, want ErrNoPlayer", err)
	}
	if len(np.Tried) != 1 {
		t.Errorf("tried = %v", np.Tried)
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		binary string
		path   string
		want   []string
	}{
		{"mpv", "/tmp/a.mp3", []string{"--no-video", "/tmp/a.mp3"}},
		{"ffplay", "/tmp/a.mp3", []string{"-autoexit", "/tmp/a.mp3"}},
		{"vlc", "/tmp/a.mp3", []string{"--play-and-exit", "/tmp/a.mp3"}},
		{"aplay", "/tmp/a.wav", []string{"/tmp/a.wav"}},
	}
	for _, tt := range tests {
		t.Run(tt.binary, func(t *testing.T) {
			cmd, err := command(context.Background(), tt.binary, tt.path)
			if err != nil {
				t.Fatalf("command: %v", err)
			}
			joined := strings.Join(cmd.Args, " ")
			for _, arg := range tt.want {
				if !strings.Contains(joined, arg) {
					t.Errorf("args %q missing %q", joined, arg)
				}
			}
		})
	}
}

func TestCommandAplayRejectsNonWav(t *testing.T) {
	if _, err := command(context.Background(), "aplay", "/tmp/a.mp3"); err == nil {
		t.Error("aplay accepted an mp3 path")
	}
}

func TestCommandUnknownBinary(t *testing.T) {
	if _, err := command(context.Background(), "winamp", "/tmp/a.mp3"); err == nil {
		t.Error("expected error for unsupported player")
	}
}

func TestAudioExt(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/audio/abc.mp3", ".mp3"},
		{"/audio/abc.wav", ".wav"},
		{"/audio/abc", ".mp3"},
		{"http://backend/audio/x.mp3", ".mp3"},
	}
	for _, tt := range tests {
		if got := AudioExt(tt.in); got != tt.want {
			t.Errorf("AudioExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlayBytesEmpty(t *testing.T) {
	p := &Player{binary: "mpv"}
	if err := p.PlayBytes(context.Background(), nil, ".mp3"); err == nil {
		t.Error("expected error for empty audio data")
	}
}

func TestPlayFileMissing(t *testing.T) {
	p := &Player{binary: "mpv"}
	if err := p.PlayFile(context.Background(), "/nonexistent/audio.mp3"); err == nil {
		t.Error("expected error for missing file")
	}
}
