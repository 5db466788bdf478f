package encoder

import (
	"fmt"
	"time"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
}

// New returns an encoder for the given payload format.
func New(format string) (Encoder, error) {
	switch format {
	case "flac":
		return NewFlac()
	case "wav":
		return NewWav(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// ContentType maps a payload format to the multipart file content type.
func ContentType(format string) string {
	switch format {
	case "flac":
		return "audio/flac"
	default:
		return "audio/wav"
	}
}
