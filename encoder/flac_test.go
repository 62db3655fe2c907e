package encoder

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// memSeeker is an in-memory io.WriteSeeker.
type memSeeker struct {
	buf []byte
	pos int
}

func (m *memSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		m.buf = append(m.buf, make([]byte, need-len(m.buf))...)
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		m.pos = int(offset)
	case 1:
		m.pos += int(offset)
	case 2:
		m.pos = len(m.buf) + int(offset)
	}
	return int64(m.pos), nil
}

func ramp(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(i % 1000)
	}
	return s
}

func TestFlacEncoder(t *testing.T) {
	var out bytes.Buffer
	enc, err := NewFlac(&out)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	samples := ramp(BlockSize*2 + BlockSize/3)
	var totalFed uint64
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			t.Fatalf("EncodeBlock at offset %d: %v", i, err)
		}
		totalFed += uint64(end - i)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if enc.TotalFrames() != totalFed {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), totalFed)
	}
	data := out.Bytes()
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFlacEncoderEmpty(t *testing.T) {
	var out bytes.Buffer
	enc, err := NewFlac(&out)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if out.Len() == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}

func TestWavEncoderHeader(t *testing.T) {
	out := &memSeeker{}
	enc := NewWav(out)

	samples := ramp(BlockSize + 10)
	if err := enc.EncodeBlock(samples); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data := out.buf
	if len(data) != WAVHeaderSize+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(data), WAVHeaderSize+len(samples)*2)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("bad RIFF header: %q", data[:12])
	}
	if got := Samples(data[WAVHeaderSize:]); got[10] != samples[10] || got[len(got)-1] != samples[len(samples)-1] {
		t.Error("sample payload does not round-trip")
	}
}

func TestWavEncoderReusesBlockBuffer(t *testing.T) {
	out := &memSeeker{}
	enc := NewWav(out)

	samples := ramp(BlockSize*3 + 7)
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			t.Fatalf("EncodeBlock at offset %d: %v", i, err)
		}
	}
	if err := enc.EncodeBlock(nil); err != nil {
		t.Fatalf("EncodeBlock(nil): %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if enc.TotalFrames() != uint64(len(samples)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(samples))
	}
	got := Samples(out.buf[WAVHeaderSize:])
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestWriteFile(t *testing.T) {
	pcm := make([]byte, 3*BlockSize*2+6)
	for i := range pcm {
		pcm[i] = byte(i)
	}

	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "clip."+format)
			frames, err := WriteFile(path, format, pcm)
			if err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if frames != uint64(len(pcm)/2) {
				t.Errorf("frames = %d, want %d", frames, len(pcm)/2)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Size() == 0 {
				t.Error("empty output file")
			}
		})
	}
}

func TestNewUnknownFormat(t *testing.T) {
	if _, err := New("mp3", &memSeeker{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
