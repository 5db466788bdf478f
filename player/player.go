// Package player plays synthesized translation audio through whatever
// command-line player the host has installed. The backend serves MP3,
// which the capture stack cannot decode itself, so playback shells out
// to mpv, ffplay or vlc.
package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoPlayer means no usable playback binary was found on PATH.
type ErrNoPlayer struct {
	Tried []string
}

func (e *ErrNoPlayer) Error() string {
	return "no audio player found (tried: " + strings.Join(e.Tried, ", ") + ")"
}

// candidates in order of preference. mpv and ffplay decode MP3 without
// extra flags; aplay is last because it only handles WAV.
var candidates = []string{"mpv", "ffplay", "vlc", "aplay"}

type Player struct {
	binary string
}

// New locates a playback binary. The result is reusable for the whole
// process lifetime.
func New() (*Player, error) {
	bin, err := find(candidates)
	if err != nil {
		return nil, err
	}
	return &Player{binary: bin}, nil
}

// Binary returns the resolved player binary name.
func (p *Player) Binary() string { return p.binary }

func find(names []string) (string, error) {
	for _, name := range names {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", &ErrNoPlayer{Tried: names}
}

// command builds the invocation for the resolved binary.
func command(ctx context.Context, binary, path string) (*exec.Cmd, error) {
	switch binary {
	case "mpv":
		return exec.CommandContext(ctx, "mpv", "--no-video", "--really-quiet", path), nil
	case "ffplay":
		return exec.CommandContext(ctx, "ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path), nil
	case "vlc":
		return exec.CommandContext(ctx, "vlc", "--intf", "dummy", "--play-and-exit", path), nil
	case "aplay":
		if !strings.HasSuffix(path, ".wav") {
			return nil, fmt.Errorf("aplay only plays wav, got %s", filepath.Ext(path))
		}
		return exec.CommandContext(ctx, "aplay", "-q", path), nil
	default:
		return nil, fmt.Errorf("unsupported player %q", binary)
	}
}

// PlayFile plays a local audio file and blocks until playback finishes
// or ctx is cancelled.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("audio file not found: %w", err)
	}
	cmd, err := command(ctx, p.binary, path)
	if err != nil {
		return err
	}
	log.Debug().Str("player", p.binary).Str("file", path).Msg("playback start")
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("playback failed with %s: %w", p.binary, err)
	}
	return nil
}

// PlayBytes writes audio data to a temporary file and plays it. The
// extension tells the player how to decode; audio URLs from the backend
// end in .mp3.
func (p *Player) PlayBytes(ctx context.Context, data []byte, ext string) error {
	if len(data) == 0 {
		return fmt.Errorf("no audio data to play")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f, err := os.CreateTemp("", "lingo-audio-*"+ext)
	if err != nil {
		return err
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return p.PlayFile(ctx, path)
}

// AudioExt extracts the file extension from an audio URL, defaulting
// to .mp3 when the URL carries none.
func AudioExt(audioURL string) string {
	ext := filepath.Ext(audioURL)
	if ext == "" || len(ext) > 5 {
		return ".mp3"
	}
	return ext
}
