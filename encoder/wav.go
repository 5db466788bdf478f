package encoder

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"
)

// WavEncoder is the zero-compression fallback: raw S16LE samples behind
// a RIFF header. The header is patched with final sizes on Close.
type WavEncoder struct {
	buf         bytes.Buffer
	totalFrames uint64
	encodeTime  time.Duration
	closed      bool
	mu          sync.Mutex
}

func NewWav() *WavEncoder {
	e := &WavEncoder{}
	// Placeholder header; sizes are filled in on Close.
	e.buf.Write(make([]byte, 44))
	return e
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	data := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	e.buf.Write(data)
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	b := e.buf.Bytes()
	dataSize := uint32(len(b) - 44)
	copy(b[0:4], "RIFF")
	binary.LittleEndian.PutUint32(b[4:8], 36+dataSize)
	copy(b[8:12], "WAVE")
	copy(b[12:16], "fmt ")
	binary.LittleEndian.PutUint32(b[16:20], 16)
	binary.LittleEndian.PutUint16(b[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(b[22:24], Channels)
	binary.LittleEndian.PutUint32(b[24:28], SampleRate)
	binary.LittleEndian.PutUint32(b[28:32], SampleRate*Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(b[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(b[34:36], BitsPerSample)
	copy(b[36:40], "data")
	binary.LittleEndian.PutUint32(b[40:44], dataSize)
	return nil
}

func (e *WavEncoder) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Bytes()
}

func (e *WavEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}

func (e *WavEncoder) AddEncodeTime(d time.Duration) {
	e.mu.Lock()
	e.encodeTime += d
	e.mu.Unlock()
}

func (e *WavEncoder) EncodeTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encodeTime
}
