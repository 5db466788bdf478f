package encoder

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWavEncoderHeader(t *testing.T) {
	enc := NewWav()

	block := make([]int16, BlockSize)
	for i := range block {
		block[i] = int16(i % 512)
	}
	if err := enc.EncodeBlock(block); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := enc.Bytes()
	if len(out) != 44+len(block)*2 {
		t.Fatalf("output size = %d, want %d", len(out), 44+len(block)*2)
	}
	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(out[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint32(out[40:44]); got != uint32(len(block)*2) {
		t.Errorf("data size = %d, want %d", got, len(block)*2)
	}
}

func TestWavEncoderPreservesSampleOrder(t *testing.T) {
	enc := NewWav()

	blocks := [][]int16{
		{1, 2, 3},
		{4, 5},
		{6, 7, 8, 9},
	}
	var want []byte
	for _, b := range blocks {
		if err := enc.EncodeBlock(b); err != nil {
			t.Fatalf("EncodeBlock: %v", err)
		}
		for _, s := range b {
			var le [2]byte
			binary.LittleEndian.PutUint16(le[:], uint16(s))
			want = append(want, le[:]...)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := enc.Bytes()[44:]
	if !bytes.Equal(got, want) {
		t.Errorf("payload bytes out of order:\ngot  %v\nwant %v", got, want)
	}
	if enc.TotalFrames() != 9 {
		t.Errorf("TotalFrames = %d, want 9", enc.TotalFrames())
	}
}

func TestWavEncoderCloseIdempotent(t *testing.T) {
	enc := NewWav()
	if err := enc.EncodeBlock([]int16{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	first := append([]byte(nil), enc.Bytes()...)
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, enc.Bytes()) {
		t.Error("second Close changed the output")
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"flac", "wav"} {
		t.Run(format, func(t *testing.T) {
			enc, err := New(format)
			if err != nil {
				t.Fatalf("New(%q): %v", format, err)
			}
			if enc == nil {
				t.Fatalf("New(%q) returned nil", format)
			}
		})
	}
	t.Run("unknown", func(t *testing.T) {
		if _, err := New("ogg"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestContentType(t *testing.T) {
	for _, tt := range []struct{ format, want string }{
		{"flac", "audio/flac"},
		{"wav", "audio/wav"},
	} {
		if got := ContentType(tt.format); got != tt.want {
			t.Errorf("ContentType(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}
